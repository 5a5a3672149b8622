// Package auth implements account registration, login, and token refresh
// on top of bcrypt password hashing and the JWT token service.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost defines the cost factor for bcrypt hashing. Cost of 12
// balances security and login latency.
const BcryptCost = 12

// HashPassword generates a bcrypt hash of the provided password. The
// hash can be safely stored in the database and used for future
// verification.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("hash cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("password verification failed: %w", err)
	}

	return nil
}
