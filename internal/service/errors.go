package service

import (
	"errors"
)

// Error kinds returned by the auth core. Handlers switch on these with
// errors.Is, the messages are safe to show to clients.
var (
	ErrDuplicateEmail        = errors.New("an account with this email already exists")
	ErrValidation            = errors.New("invalid input")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email address not verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrUnauthorized          = errors.New("insufficient permissions")
	ErrStoreFailure          = errors.New("internal server error")

	// ErrNoSession never leaves the core, the gate turns it into a failed
	// authentication result
	ErrNoSession = errors.New("no valid session")

	ErrUserNotFound = errors.New("user not found")
)

// publicKinds can be shown to clients even when returned bare
var publicKinds = []error{
	ErrDuplicateEmail,
	ErrValidation,
	ErrInvalidCredentials,
	ErrEmailNotVerified,
	ErrInvalidOrExpiredToken,
	ErrUnauthenticated,
	ErrUnauthorized,
}

// Error is returned for every failure of the auth core. Cases that must not be
// told apart by a client (unknown email vs wrong password, missing vs expired
// token) share a Kind and differ only in Detail, which is for logs only.
type Error struct {
	Kind   error
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

func newError(kind error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func validationError(cause error) *Error {
	return &Error{Kind: ErrValidation, Detail: cause.Error(), Cause: cause}
}

func storeFailure(detail string, cause error) *Error {
	return &Error{Kind: ErrStoreFailure, Detail: detail, Cause: cause}
}

// PublicMessage returns the text of err that can be sent to a client.
// Validation errors carry the specific problem, everything else only its
// kind. Unknown errors are reported as internal.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		for _, k := range publicKinds {
			if errors.Is(err, k) {
				return k.Error()
			}
		}

		return ErrStoreFailure.Error()
	}

	if e.Kind == ErrValidation && e.Cause != nil {
		return e.Cause.Error()
	}

	return e.Kind.Error()
}

// Detail returns the logged-only detail of err, or err itself when it isn't
// an *Error
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Kind == ErrStoreFailure {
			return e.Detail + ": " + e.Cause.Error()
		}

		return e.Detail
	}

	if err == nil {
		return ""
	}

	return err.Error()
}
