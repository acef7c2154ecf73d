package parkeren

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid dhparkeren configuration")
	// ErrTransport indicates the upstream could not be reached after all retries
	ErrTransport = errors.New("transport failure")
	// ErrAuthFailed indicates the session could not be (re-)established
	ErrAuthFailed = errors.New("authentication failed")
	// ErrSessionClosed indicates use of a session after Close
	ErrSessionClosed = errors.New("session is closed")
	// ErrMalformedResponse indicates a response body that could not be decoded
	ErrMalformedResponse = errors.New("malformed response")
	// ErrBusiness matches any APIError of kind BusinessError
	ErrBusiness = errors.New("request rejected by upstream")
	// ErrUnknown matches any APIError of kind UnknownError
	ErrUnknown = errors.New("unknown upstream error")
)

// ConnectionError indicates the transport for the base URL could not be established
type ConnectionError struct {
	BaseURL string
	Err     error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %q: %v", e.BaseURL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// APIError represents a business or unknown error reported by the upstream
type APIError struct {
	Kind       OutcomeKind
	Code       string
	Message    string
	StatusCode int
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("dhparkeren API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("dhparkeren API error %s: %s", e.Code, e.Message)
}

// Is lets errors.Is match ErrBusiness and ErrUnknown
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBusiness:
		return e.Kind == KindBusinessError
	case ErrUnknown:
		return e.Kind == KindUnknownError
	}
	return false
}

// IsInsufficientBalance checks if the upstream rejected the call for lack of balance
func (e *APIError) IsInsufficientBalance() bool {
	return normalizeCode(e.Code) == CodeInsufficientBalance
}

// IsNotFound checks if the error indicates a missing resource
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}
