package inventory

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failure")
	ErrStore      = errors.New("store failure")
)

// ErrInsufficientStock is wrapped by validation errors raised when an order
// asks for more units than a product has.
var ErrInsufficientStock = errors.New("insufficient stock")

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    error
	Op      string
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Kind != ErrStore {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func notFound(op, kind, id string) error {
	return &Error{
		Kind:    ErrNotFound,
		Op:      op,
		ID:      id,
		Message: fmt.Sprintf("%s not found", kind),
	}
}

func invalid(op, message string) error {
	return &Error{
		Kind:    ErrValidation,
		Op:      op,
		Message: message,
	}
}

func insufficientStock(op, productID, label string) error {
	return &Error{
		Kind:    ErrValidation,
		Op:      op,
		ID:      productID,
		Message: fmt.Sprintf("Insufficient stock for product %s", label),
		Err:     ErrInsufficientStock,
	}
}

func storeFailure(op, id string, err error) error {
	return &Error{
		Kind:    ErrStore,
		Op:      op,
		ID:      id,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}
