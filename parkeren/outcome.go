package parkeren

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OutcomeKind tags the variant held by an Outcome
type OutcomeKind int

const (
	// KindSuccess carries the response body
	KindSuccess OutcomeKind = iota
	// KindBusinessError carries a known upstream error code and its message
	KindBusinessError
	// KindUnknownError carries an unrecognised code (or none) and the default message
	KindUnknownError
	// KindTransportError carries the transport cause after retries were exhausted
	KindTransportError
	// KindAuthExpired signals that the upstream no longer accepts the session
	KindAuthExpired
	// KindAuthFailed signals that the session could not be (re-)established
	KindAuthFailed
)

// String returns the string representation of an OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindBusinessError:
		return "business_error"
	case KindUnknownError:
		return "unknown_error"
	case KindTransportError:
		return "transport_error"
	case KindAuthExpired:
		return "auth_expired"
	case KindAuthFailed:
		return "auth_failed"
	default:
		return "invalid"
	}
}

// Outcome is the typed result of one logical API call. Use the constructors;
// each variant only populates the fields that belong to it.
type Outcome struct {
	Kind       OutcomeKind
	Body       json.RawMessage
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Success returns a successful outcome carrying body
func Success(status int, body []byte) Outcome {
	return Outcome{Kind: KindSuccess, StatusCode: status, Body: json.RawMessage(body)}
}

// BusinessError returns an outcome for a known upstream error code
func BusinessError(status int, code, message string) Outcome {
	return Outcome{Kind: KindBusinessError, StatusCode: status, Code: code, Message: message}
}

// UnknownError returns an outcome for an unrecognised or missing error code
func UnknownError(status int, code string) Outcome {
	return Outcome{Kind: KindUnknownError, StatusCode: status, Code: code, Message: DefaultErrorMessage}
}

// TransportError returns an outcome for a failed exchange
func TransportError(cause error) Outcome {
	if cause == nil {
		cause = ErrTransport
	}
	return Outcome{Kind: KindTransportError, Cause: cause, Message: cause.Error()}
}

// AuthExpired returns an outcome for a rejected session
func AuthExpired(status int, code string) Outcome {
	return Outcome{Kind: KindAuthExpired, StatusCode: status, Code: code, Message: ErrorMessage(code)}
}

// AuthFailed returns an outcome for a session that could not be established
func AuthFailed(cause error) Outcome {
	if cause == nil {
		cause = ErrAuthFailed
	}
	return Outcome{Kind: KindAuthFailed, Cause: cause, Message: cause.Error()}
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// Retryable reports whether the executor may repeat the exchange
func (o Outcome) Retryable() bool {
	return o.Kind == KindTransportError
}

// Err converts the outcome into the package error taxonomy. Success yields nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindBusinessError, KindUnknownError:
		return &APIError{Kind: o.Kind, Code: o.Code, Message: o.Message, StatusCode: o.StatusCode}
	case KindTransportError:
		if errors.Is(o.Cause, ErrTransport) {
			return o.Cause
		}
		return fmt.Errorf("%w: %w", ErrTransport, o.Cause)
	case KindAuthExpired:
		return fmt.Errorf("%w: session rejected by upstream (%s)", ErrAuthFailed, o.Message)
	case KindAuthFailed:
		if errors.Is(o.Cause, ErrAuthFailed) {
			return o.Cause
		}
		return fmt.Errorf("%w: %w", ErrAuthFailed, o.Cause)
	default:
		return fmt.Errorf("invalid outcome kind %d", int(o.Kind))
	}
}

// Decode unmarshals a successful outcome body into v. Non-success outcomes
// return their error; an empty body leaves v untouched.
func (o Outcome) Decode(v any) error {
	if err := o.Err(); err != nil {
		return err
	}
	if len(o.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(o.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
