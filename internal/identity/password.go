package identity

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/eventhub/backend/internal/models"
)

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", models.NewValidationError("password", "is required")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
