package fraud

import "errors"

var (
	ErrRuleNotFound  = errors.New("fraud rule not found")
	ErrInvalidRule   = errors.New("fraud rule configuration is invalid")
	ErrInvalidWindow = errors.New("rule window must be HOR, DIA or SEM")

	ErrAlertNotFound        = errors.New("fraud alert not found")
	ErrAlertNotPending      = errors.New("alert is not pending")
	ErrAlertAlreadyResolved = errors.New("alert is already resolved")

	// ErrDuplicateAlert is returned when an alert already exists for a
	// unique code; evaluation must not create a second one.
	ErrDuplicateAlert = errors.New("alert already exists for unique code")
)
