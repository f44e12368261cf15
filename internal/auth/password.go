package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 10

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GeneratePassword returns a random initial password for provisioned accounts.
func GeneratePassword() string {
	return uuid.New().String()[:generatedPasswordLength]
}
