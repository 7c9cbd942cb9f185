package validators

import (
	"errors"
	"fmt"
)

// DefaultMinPasswordLength is used when no minimum is configured
const DefaultMinPasswordLength = 6

const maxPasswordLength = 255

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

// PasswordValidator checks p against the minimum length min. A min below 1
// falls back to DefaultMinPasswordLength.
func PasswordValidator(p string, min int) error {
	if min < 1 {
		min = DefaultMinPasswordLength
	}

	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < min {
		return fmt.Errorf("%w, it must be at least %d characters long", ErrPasswordTooShort, min)
	}

	if len(p) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	return nil
}
