package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTransaction: a callback referenced a transaction we never created.
	ErrUnknownTransaction = errors.New("unknown transaction")
	// ErrAlreadyProcessed: the transaction or disbursement is already terminal.
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrConcurrentModification: lost the race to another in-flight change.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrSecurity: webhook signature or auth check failed. Logged, never detailed
	// to the caller.
	ErrSecurity = errors.New("security check failed")
	// ErrOrderNotPaid: disbursement requested for an order that is not PAID.
	ErrOrderNotPaid = errors.New("order is not paid")
)

// ValidationError is a client-correctable input problem.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateTransition is returned when a requested order move violates the
// lifecycle table.
type InvalidStateTransition struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

// GatewayError wraps a provider call failure. Definitive means the provider
// rejected the request outright; a transport timeout is not definitive and
// must leave the transaction PENDING.
type GatewayError struct {
	Gateway    Gateway
	Definitive bool
	Err        error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Gateway, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsDefinitiveGatewayFailure reports whether err is a provider rejection (as
// opposed to a timeout or transport fault, where the charge may still land).
func IsDefinitiveGatewayFailure(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Definitive
}
