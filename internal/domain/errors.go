package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid")

	// ErrNotSignedIn is returned by client operations that need a session when there is none.
	ErrNotSignedIn = errors.New("not signed in")
)

// ErrAddInFlight rejects an add-link request while another one is still outstanding.
var ErrAddInFlight = NewValidationError("A link is already being saved")

// ValidationError is raised for empty or malformed input before any network call.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// AuthError carries a failure reported by the identity provider.
type AuthError struct {
	Msg string
	Err error
}

func NewAuthError(msg string, err error) *AuthError {
	return &AuthError{Msg: msg, Err: err}
}

func (e *AuthError) Error() string {
	return e.Msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError covers transport failures and non-success responses from the link backend.
// Msg is the user-facing text; Err keeps the underlying cause for logs.
type NetworkError struct {
	Msg    string
	Status int
	Err    error
}

func NewNetworkError(msg string, status int, err error) *NetworkError {
	return &NetworkError{Msg: msg, Status: status, Err: err}
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

// Message returns the user-facing text of err: the Msg field of the typed errors above,
// or err.Error() for anything else.
func Message(err error) string {
	var (
		v *ValidationError
		a *AuthError
		n *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &v):
		return v.Msg
	case errors.As(err, &a):
		return a.Msg
	case errors.As(err, &n):
		return n.Msg
	default:
		return err.Error()
	}
}
