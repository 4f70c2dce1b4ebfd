package utils

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for stored passwords.
const DefaultPasswordCost = 12

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

var (
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain uppercase, " +
		"lowercase, number and special symbol")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPassword reports whether password matches the stored hash.
// A nil hash never matches, e.g. for accounts created through a provider.
func CheckPassword(hashedPassword *string, password string) bool {
	if hashedPassword == nil || *hashedPassword == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(*hashedPassword), []byte(password))
	return err == nil
}

func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if len(password) < 8 || !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return ErrWeakPassword
	}

	return nil
}
