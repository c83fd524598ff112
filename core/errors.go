package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for comparison using errors.Is().
// Each sentinel corresponds to one failure class of the backend API.
var (
	// Request outcome errors
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrServer         = errors.New("server error")
	ErrNetwork        = errors.New("network error")
	ErrDecode         = errors.New("malformed response")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Session errors
	ErrSessionUnavailable = errors.New("session storage unavailable")
)

// ErrorKind categorizes API errors
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindServer         ErrorKind = "server"
	KindNetwork        ErrorKind = "network"
	KindDecode         ErrorKind = "decode"
	KindUnknown        ErrorKind = "unknown"
)

// APIError provides structured error information for a failed API call.
// It implements the error interface and supports error wrapping, so callers
// can either switch on Kind/Status or use errors.Is with the sentinels above.
type APIError struct {
	Op      string    // Operation that failed (e.g., "products.Search")
	Kind    ErrorKind // Category of error
	Status  int       // HTTP status code, 0 when no response was received
	Message string    // Backend-provided message when available
	Err     error     // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *APIError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinelFor(e.Kind)
}

// Is matches both the wrapped error and the kind's sentinel, so
// errors.Is(err, core.ErrConflict) works on any conflict-kind APIError.
func (e *APIError) Is(target error) bool {
	if s := sentinelFor(e.Kind); s != nil && target == s {
		return true
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindAuthentication:
		return ErrAuthentication
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindServer:
		return ErrServer
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// NewAPIError creates a new APIError
func NewAPIError(op string, kind ErrorKind, status int, message string) *APIError {
	return &APIError{
		Op:      op,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// NewNetworkError wraps a transport-level failure (timeout, DNS, refused
// connection). No HTTP response exists, so Status stays 0.
func NewNetworkError(op string, err error) *APIError {
	return &APIError{
		Op:   op,
		Kind: KindNetwork,
		Err:  err,
	}
}

// NewDecodeError wraps a parse failure on a response that WAS received.
// It is distinct from a network error: the backend answered, the body just
// did not match the declared shape.
func NewDecodeError(op string, err error) *APIError {
	return &APIError{
		Op:   op,
		Kind: KindDecode,
		Err:  err,
	}
}

// KindForStatus maps an HTTP status code to an error kind. Unmapped codes
// pass through as KindUnknown with the status intact rather than being
// forced into the wrong bucket.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// StatusOf extracts the HTTP status from an error chain, or 0 if none
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the error is the session-invalidating kind.
// The UI layer uses this to decide on a redirect to login.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNetwork reports whether the request never produced a response. Network
// failures are not evidence of an invalid token and never clear the session.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
