package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleRepository manages fraud rules. Rules are deactivated, never deleted.
type RuleRepository interface {
	Create(ctx context.Context, rule *Rule) error
	Update(ctx context.Context, rule *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// ListActive returns enabled rules ordered by priority ascending; ties
	// break by rule id so evaluation order is deterministic.
	ListActive(ctx context.Context) ([]*Rule, error)

	List(ctx context.Context) ([]*Rule, error)
}

// AlertRepository manages fraud alerts. At most one live alert per unique
// code; CreateIfAbsent enforces the dedupe.
type AlertRepository interface {
	// CreateIfAbsent stores the alert unless one already exists for its
	// unique code, in which case it returns the existing alert and
	// ErrDuplicateAlert.
	CreateIfAbsent(ctx context.Context, alert *Alert) (*Alert, error)

	Update(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	GetByUniqueCode(ctx context.Context, code string) (*Alert, error)
	ListByStatus(ctx context.Context, status AlertStatus) ([]*Alert, error)
}

// HistoryProvider supplies the per-card activity a rule's window limits are
// checked against. Backed by the velocity cache when available, falling
// back to the transaction store.
type HistoryProvider interface {
	CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error)
	SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error)
}
