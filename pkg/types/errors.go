package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Lookup errors.
var (
	ErrUnknownKind  = errors.New("unknown entity kind")
	ErrUnknownField = errors.New("unknown binary field")
)

// Request failure classes. Every failure returned by the gateway matches
// exactly one of ErrNetwork, ErrServer, or ErrValidation under errors.Is.
var (
	ErrNetwork    = errors.New("network failure")
	ErrServer     = errors.New("server error")
	ErrValidation = errors.New("validation failed")
)

// Refinements of the failure classes.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrConflict      = errors.New("entity conflict")
	ErrBadTotalCount = errors.New("malformed X-Total-Count header")
	ErrIDExists      = errors.New("a new entity cannot already have an ID")
	ErrIDNull        = errors.New("entity ID is required")
)

// NetworkFailure reports a request that never produced a response: the
// connection failed, the context was cancelled, or the transport timed out.
type NetworkFailure struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("network failure: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes both the class sentinel and the transport error.
func (e *NetworkFailure) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// ServerError reports a non-2xx response, or a 2xx response the client
// could not interpret. Body holds the response payload as received.
type ServerError struct {
	Status int
	Body   string
	Err    error
}

func (e *ServerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server error: %d %s", e.Status, http.StatusText(e.Status))
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	return b.String()
}

// Is matches ErrServer, and ErrNotFound or ErrConflict by status.
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// ValidationFailure reports a client-side check that failed before any
// request was sent. Fields lists missing required fields; Err carries an
// identity rule violation (ErrIDExists or ErrIDNull) when there is one.
type ValidationFailure struct {
	Kind   Kind
	Fields []string
	Err    error
}

func (e *ValidationFailure) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing required fields "+strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Kind, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationFailure) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationFailure) Unwrap() error {
	return e.Err
}
