package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// Work factor for staff password hashes.
	BcryptCost = 12

	MinPasswordLength = 8

	// PasswordSpecials is the full set of accepted non-alphanumeric characters.
	PasswordSpecials = "@$!%*?&#"
)

var ErrPasswordMismatch = errors.New("password does not match")

// PolicyError lists every rule a candidate password breaks.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password " + strings.Join(e.Violations, ", ")
}

// CheckPasswordPolicy requires at least eight characters drawn only from
// ASCII letters, digits and PasswordSpecials, with at least one lower-case
// letter, one upper-case letter, one digit and one special character.
func CheckPasswordPolicy(password string) error {
	var lower, upper, digit, special, foreign bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		default:
			foreign = true
		}
	}

	var v []string
	if len(password) < MinPasswordLength {
		v = append(v, fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if !lower {
		v = append(v, "must contain a lowercase letter")
	}
	if !upper {
		v = append(v, "must contain an uppercase letter")
	}
	if !digit {
		v = append(v, "must contain a digit")
	}
	if !special {
		v = append(v, "must contain one of "+PasswordSpecials)
	}
	if foreign {
		v = append(v, "may only contain letters, digits and "+PasswordSpecials)
	}
	if len(v) > 0 {
		return &PolicyError{Violations: v}
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword returns ErrPasswordMismatch when password does not
// produce hash.
func ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("comparing password: %w", err)
	}
	return nil
}
