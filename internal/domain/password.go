package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxPasswordLength = 128

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}
