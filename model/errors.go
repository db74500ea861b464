package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrUnauthenticated   = errors.New("not signed in")
	ErrOffline           = errors.New("remote service unreachable")
	ErrSessionExpired    = errors.New("session expired")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrNotePending       = errors.New("note is not saved yet")
	ErrValidation        = errors.New("validation failed")
)

// validationError is an ErrValidation whose text is fit for the user.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// Invalid builds a validation error with a user-facing message.
func Invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// RemoteError is a rejection returned by the hosted service: validation,
// permission, conflict.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindOffline         ErrorKind = "offline"
	KindSessionExpired  ErrorKind = "session_expired"
	KindNotFound        ErrorKind = "not_found"
	KindInvalid         ErrorKind = "invalid"
	KindRejected        ErrorKind = "rejected"
)

// Classify maps an error from any layer onto the taxonomy the store and the
// handlers act on.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrSessionExpired):
		return KindSessionExpired
	case errors.Is(err, ErrOffline):
		return KindOffline
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotePending), errors.Is(err, ErrValidation):
		return KindInvalid
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		if isJWTExpiry(remoteErr) {
			return KindSessionExpired
		}
		return KindRejected
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return KindOffline
	}

	return KindRejected
}

func isJWTExpiry(e *RemoteError) bool {
	if e.Code == "PGRST301" || e.Code == "PGRST303" || e.Code == "bad_jwt" {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "jwt") && (strings.Contains(msg, "expired") || strings.Contains(msg, "invalid"))
}

// UserMessage is the text shown to the user when an operation fails.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindUnauthenticated:
		return "Please sign in to access your notes"
	case KindOffline:
		return "Unable to connect to the server. Please check your internet connection."
	case KindSessionExpired:
		return "Your session has expired. Please sign in again."
	case KindNotFound:
		return "The item no longer exists"
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "An unexpected error occurred"
}
