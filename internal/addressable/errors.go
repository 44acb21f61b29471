package addressable

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every failed call matches exactly one of these with errors.Is.
var (
	// ErrNetwork covers URL construction, missing credentials, transport
	// failures and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrParsing means the response body did not match the expected schema.
	ErrParsing = errors.New("parsing error")
)

var (
	// ErrMissingToken is returned before any I/O when no auth token is
	// available.
	ErrMissingToken = errors.New("unable to apply authorization token to request")
	// ErrPaymentRequired matches responses with status 402.
	ErrPaymentRequired = errors.New("payment required")
	// ErrUnauthorized matches responses with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is the error type returned by every Client operation.
type Error struct {
	Kind       error
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Is reports status-derived conditions.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPaymentRequired:
		return e.StatusCode == http.StatusPaymentRequired
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

func networkError(op string, err error) *Error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}

func statusError(op string, code int) *Error {
	return &Error{Kind: ErrNetwork, Op: op, StatusCode: code, Err: fmt.Errorf("api returned status %d", code)}
}

func parsingError(op string, err error) *Error {
	return &Error{Kind: ErrParsing, Op: op, Err: err}
}
