package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextClaims is the key for the validated token claims in gin context.
	ContextClaims = "claims"
)

// TokenValidator validates a bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that validates the bearer token and sets claims in context.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := bearerClaims(c, validator)
		if claims == nil {
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// ReadOnlyOrJWT lets safe methods through anonymously and requires a valid token for writes.
// A token sent on a safe method is still validated and applied.
func ReadOnlyOrJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		safe := c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS"
		if safe && c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, msg := bearerClaims(c, validator)
		if claims == nil {
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// Claims returns the authenticated identity, if any.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// UserID returns the authenticated user's id, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := Claims(c)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func bearerClaims(c *gin.Context, validator TokenValidator) (*auth.Claims, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, "missing authorization header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "invalid authorization header"
	}
	claims, err := validator.Validate(parts[1])
	if err != nil {
		return nil, "invalid or expired token"
	}
	return claims, ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, claims.UserID)
}
