// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"

	"github.com/dalemusser/stratadmin/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt truncates past 72 bytes
	BcryptCost        = 10
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordCommon   = errors.New("password is on the common-password list")
	ErrPasswordReserved = errors.New("password equals the Okta-managed marker")
)

var commonPasswords = map[string]bool{
	"123456":   true,
	"12345678": true,
	"password": true,
	"qwerty":   true,
	"letmein":  true,
	"admin":    true,
	"changeme": true,
}

// ValidatePassword checks a password before it is hashed for a local account.
// The stored marker for Okta-managed users is refused so a local hash can
// never be confused with it.
func ValidatePassword(password string) error {
	switch {
	case password == models.OktaManagedPassword:
		return ErrPasswordReserved
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	case commonPasswords[strings.ToLower(password)]:
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash stored in users.password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Non-bcrypt values,
// such as the Okta marker, never match.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
