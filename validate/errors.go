package validate

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every ValidationError
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes a rejected input value
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is match ErrInvalidInput
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
