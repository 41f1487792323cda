// Package bank holds the read-side collaborator for partner banks.
// Banks are provisioned elsewhere; the processor only looks them up to
// resolve commissions and to label history queries with commercial names.
package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Status marks whether a bank may submit transactions.
type Status string

const (
	StatusActive   Status = "ACT"
	StatusInactive Status = "INA"
)

// Bank is a partner bank that owns transactions and a commission schedule.
type Bank struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	CommercialName string    `json:"commercial_name"`
	Status         Status    `json:"status"`
}

// IsActive reports whether the bank may submit transactions.
func (b *Bank) IsActive() bool {
	return b.Status == StatusActive
}

// ErrNotFound is returned when a bank id is unknown.
var ErrNotFound = errors.New("bank not found")

// Repository is the lookup contract for banks.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Bank, error)
	GetByCommercialName(ctx context.Context, name string) (*Bank, error)
}
