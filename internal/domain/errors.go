package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotAuthenticated is returned when no credentials are stored for the browser session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the stored role lacks a capability.
	ErrForbidden = errors.New("forbidden")
	// ErrCorruptCredentials is returned when stored credentials cannot be decoded.
	ErrCorruptCredentials = errors.New("corrupt stored credentials")
	// ErrUnknownRole is returned by ParseRole for values outside the enumeration.
	ErrUnknownRole = errors.New("unknown role")
)

// ValidationError is a client-side form failure, reported before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
