package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolver computes the processing fee for a bank given its transaction
// count in the current period.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

// NewResolver builds a Resolver. A nil logger falls back to slog.Default.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolution is the outcome of a commission lookup.
type Resolution struct {
	ScheduleID uuid.UUID
	Amount     decimal.Decimal
}

// Resolve returns the fee for the bank at the given transaction count.
//
// Flat schedules return the base amount regardless of count. Tiered
// schedules select the segment whose half-open range [From, To) contains
// the count and fail with ErrNoMatchingSegment on a configuration gap.
// If misconfigured data contains overlapping segments, the segment with the
// smallest From wins and the condition is logged as a warning rather than
// treated as a runtime failure.
func (r *Resolver) Resolve(ctx context.Context, bankID uuid.UUID, transactionCount int64) (*Resolution, error) {
	schedule, err := r.repo.GetActiveByBank(ctx, bankID)
	if err != nil {
		return nil, fmt.Errorf("resolve commission for bank %s: %w", bankID, err)
	}

	if !schedule.ManagesSegments {
		return &Resolution{ScheduleID: schedule.ID, Amount: schedule.BaseAmount}, nil
	}

	var matches []Segment
	for _, seg := range schedule.OrderedSegments() {
		if seg.Contains(transactionCount) {
			matches = append(matches, seg)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("schedule %s at count %d: %w", schedule.ID, transactionCount, ErrNoMatchingSegment)
	case 1:
	default:
		// Overlap should have been rejected at configuration time.
		r.logger.WarnContext(ctx, "overlapping commission segments, using lowest range",
			slog.String("schedule_id", schedule.ID.String()),
			slog.Int64("transaction_count", transactionCount),
			slog.Int("matches", len(matches)))
	}

	// OrderedSegments sorts by From ascending, so the first match has the
	// smallest lower bound.
	return &Resolution{ScheduleID: schedule.ID, Amount: matches[0].Amount}, nil
}
