// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 100

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")

	ErrNameEmpty   = errors.New("no name provided")
	ErrNameTooLong = errors.New("name is too long")
)

func EmailValidator(e string) error {
	e = strings.TrimSpace(e)
	if e == "" {
		return ErrEmailEmpty
	}

	// ParseAddress also accepts "Ann <a@x.com>", only the bare address is allowed here
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}

func NameValidator(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		return ErrNameEmpty
	}

	if utf8.RuneCountInString(n) > maxNameLength {
		return ErrNameTooLong
	}

	return nil
}
