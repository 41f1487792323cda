package commission

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the lookup contract for commission schedules.
type Repository interface {
	// GetActiveByBank returns the bank's active schedule with its segments
	// loaded, or ErrMissingSchedule.
	GetActiveByBank(ctx context.Context, bankID uuid.UUID) (*Schedule, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)

	// Save persists a schedule and its segments. Used by configuration
	// tooling and tests; the resolver itself never writes.
	Save(ctx context.Context, schedule *Schedule) error
}
