package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an id-keyed lookup miss. Only GetByID and Touch
	// return it; Delete reports a miss through its boolean result instead.
	ErrNotFound = errors.New("store: clip not found")
	// ErrInvalidClip reports a clip payload rejected by a constructor.
	ErrInvalidClip = errors.New("store: invalid clip")
)

// StoreError wraps a persistence failure with an operation code.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func (e *StoreError) Code() string {
	return e.code
}

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &StoreError{code: code, err: cause}
}
