package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a transaction cannot be located.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidTransition is returned when a status change is not in the
	// state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus is returned for a status code outside PEN/APR/REC/REV.
	ErrUnknownStatus = errors.New("unknown transaction status")

	// ErrDuplicateUniqueCode is returned when a create request reuses an
	// idempotency code that is already assigned.
	ErrDuplicateUniqueCode = errors.New("duplicate unique code")

	// ErrConcurrentModification is returned when a status update loses an
	// optimistic-lock race. The caller may retry against fresh state.
	ErrConcurrentModification = errors.New("transaction modified concurrently")

	// ErrNonPositiveAmount is returned when the amount is zero or negative.
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")

	ErrMissingBank       = errors.New("owning bank is required")
	ErrMissingCurrency   = errors.New("currency code is required")
	ErrInvalidModality   = errors.New("modality must be SIM or REC")
	ErrMissingRecurrence = errors.New("recurring transactions require a recurrence window")
	ErrInvalidRecurrence = errors.New("recurrence end must be after recurrence start")

	// ErrDownstreamUnavailable is returned when an outbound collaborator
	// times out or fails; the operation is safe to retry by unique code.
	ErrDownstreamUnavailable = errors.New("downstream collaborator unavailable")

	// ErrProcessorDeclined is returned when the card network refuses the
	// authorization outright.
	ErrProcessorDeclined = errors.New("card network declined the transaction")
)

// BusinessError decorates a sentinel with the entity, the action attempted
// and the offending value, so rejected operations are diagnosable without
// digging through logs.
type BusinessError struct {
	Entity string
	Action string
	Value  string
	Err    error
}

// NewBusinessError wraps err with diagnostic context.
func NewBusinessError(entity, action, value string, err error) *BusinessError {
	return &BusinessError{Entity: entity, Action: action, Value: value, Err: err}
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Action, e.Entity, e.Value, e.Err)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}
