package birthday

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrRecordNotFound = errors.New("birthday record not found")
	ErrAlreadyExists  = errors.New("birthday record already exists")
	ErrStorage        = errors.New("storage unavailable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ParseError is returned when a stored or supplied date cannot be read.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot parse date %q", e.Value)
	}
	return fmt.Sprintf("cannot parse date %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError wraps a backend failure so callers can match it with errors.Is(err, ErrStorage).
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
