package common

import (
	"errors"
	"fmt"

	"clipshare/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var errPasswordTooLong = fmt.Errorf("password longer than %d bytes", maxPasswordBytes)

func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.E(domain.KindInvalid, "hash password", errPasswordTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword returns nil on a match and a KindUnauthenticated error otherwise.
func CheckPassword(password, hashedPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.E(domain.KindUnauthenticated, "check password", err)
	}
	return err
}
