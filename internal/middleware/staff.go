package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventhub/backend/pkg/response"
)

// RequireStaff allows only staff or superuser identities. Call after JWT.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !claims.IsAdmin() {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
