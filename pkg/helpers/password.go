package helpers

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

// BcryptHasher is the bcrypt implementation of the one-way password hashing
// contract used by the user service.
type BcryptHasher struct{}

// Hash hashes the plain text password using bcrypt.
func (BcryptHasher) Hash(plain string) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", apperror.InvalidArgument("password", "password is required")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether the plain password matches the bcrypt hash.
func (BcryptHasher) Verify(plain, hash string) (bool, error) {
	if strings.TrimSpace(plain) == "" {
		return false, apperror.InvalidArgument("password", "password is required")
	}
	if strings.TrimSpace(hash) == "" {
		return false, apperror.InvalidArgument("password", "password hash is required")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil, nil
}
