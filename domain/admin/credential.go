package admin

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoCredential    = errors.New("no admin credential configured")
	ErrInvalidPassword = errors.New("invalid password")
)

// PasswordVerifier checks a submitted password against the configured admin credential.
type PasswordVerifier interface {
	Verify(password string) error
}

type passwordVerifier struct {
	plain []byte
	hash  []byte
}

// NewPasswordVerifier prefers the bcrypt hash when both forms are configured.
func NewPasswordVerifier(plain, hash string) PasswordVerifier {
	return &passwordVerifier{plain: []byte(plain), hash: []byte(hash)}
}

func (v *passwordVerifier) Verify(password string) error {
	switch {
	case len(v.hash) > 0:
		if password == "" {
			return ErrInvalidPassword
		}
		if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	case len(v.plain) > 0:
		if password == "" || subtle.ConstantTimeCompare(v.plain, []byte(password)) != 1 {
			return ErrInvalidPassword
		}
		return nil
	default:
		return ErrNoCredential
	}
}

// HashPassword produces a value suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
