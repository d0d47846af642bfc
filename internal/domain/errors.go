package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrUnauthorized indicates a missing or invalid form token. The workflow
// rejects the request before any mutation.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConflict indicates a resource already exists (e.g. a registered email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrEmptyCart indicates the session's cart has no line items, so no order
// can be created from it.
type ErrEmptyCart struct {
	SessionID string
}

func (e *ErrEmptyCart) Error() string {
	return "cart is empty"
}

// ErrOrderCreation wraps any failure during order assembly. The cart is left
// untouched when this is returned.
type ErrOrderCreation struct {
	Err error
}

func (e *ErrOrderCreation) Error() string {
	return fmt.Sprintf("order creation failed: %v", e.Err)
}

func (e *ErrOrderCreation) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in the commerce backend.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
