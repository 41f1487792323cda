package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	schedule *Schedule
	err      error
}

func (s *stubRepository) GetActiveByBank(ctx context.Context, bankID uuid.UUID) (*Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.schedule, nil
}

func (s *stubRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.schedule, nil
}

func (s *stubRepository) Save(ctx context.Context, schedule *Schedule) error {
	s.schedule = schedule
	return nil
}

func tieredSchedule(bankID uuid.UUID, segments ...Segment) *Schedule {
	return &Schedule{
		ID:              uuid.New(),
		BankID:          bankID,
		ManagesSegments: true,
		Segments:        segments,
		Active:          true,
	}
}

func seg(from, to int64, amount string) Segment {
	a, _ := decimal.NewFromString(amount)
	return Segment{ID: uuid.New(), From: from, To: to, Amount: a}
}

func TestResolveFlatSchedule(t *testing.T) {
	bankID := uuid.New()
	schedule := &Schedule{
		ID:         uuid.New(),
		BankID:     bankID,
		BaseAmount: decimal.NewFromFloat(2.50),
		Active:     true,
	}
	resolver := NewResolver(&stubRepository{schedule: schedule}, nil)

	for _, count := range []int64{0, 1, 99999} {
		res, err := resolver.Resolve(context.Background(), bankID, count)
		require.NoError(t, err)
		assert.Equal(t, schedule.ID, res.ScheduleID)
		assert.True(t, res.Amount.Equal(decimal.NewFromFloat(2.50)), "count %d", count)
	}
}

func TestResolveTieredSchedule(t *testing.T) {
	bankID := uuid.New()
	schedule := tieredSchedule(bankID,
		seg(0, 100, "1.00"),
		seg(100, 500, "2.00"),
	)
	resolver := NewResolver(&stubRepository{schedule: schedule}, nil)

	tests := []struct {
		name   string
		count  int64
		amount string
	}{
		{name: "first segment lower edge", count: 0, amount: "1.00"},
		{name: "inside first segment", count: 99, amount: "1.00"},
		{name: "boundary belongs to next segment", count: 100, amount: "2.00"},
		{name: "inside second segment", count: 499, amount: "2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.Resolve(context.Background(), bankID, tt.count)
			require.NoError(t, err)
			want, _ := decimal.NewFromString(tt.amount)
			assert.True(t, res.Amount.Equal(want), "got %s", res.Amount)
		})
	}
}

func TestResolveNoMatchingSegment(t *testing.T) {
	bankID := uuid.New()
	schedule := tieredSchedule(bankID, seg(0, 100, "1.00"), seg(100, 500, "2.00"))
	resolver := NewResolver(&stubRepository{schedule: schedule}, nil)

	_, err := resolver.Resolve(context.Background(), bankID, 500)
	require.ErrorIs(t, err, ErrNoMatchingSegment)
}

func TestResolveOverlappingSegmentsUsesLowestRange(t *testing.T) {
	bankID := uuid.New()
	// Overlap is rejected at configuration time; this simulates corrupted
	// data that bypassed validation.
	schedule := tieredSchedule(bankID,
		seg(50, 200, "3.00"),
		seg(0, 100, "1.00"),
	)
	resolver := NewResolver(&stubRepository{schedule: schedule}, nil)

	res, err := resolver.Resolve(context.Background(), bankID, 75)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(1)), "expected the segment with the smallest lower bound, got %s", res.Amount)
}

func TestResolveMissingSchedule(t *testing.T) {
	resolver := NewResolver(&stubRepository{err: ErrMissingSchedule}, nil)

	_, err := resolver.Resolve(context.Background(), uuid.New(), 10)
	require.ErrorIs(t, err, ErrMissingSchedule)
}

func TestScheduleValidate(t *testing.T) {
	bankID := uuid.New()

	tests := []struct {
		name     string
		schedule *Schedule
		wantErr  error
	}{
		{
			name:     "flat schedule needs no segments",
			schedule: &Schedule{ID: uuid.New(), BankID: bankID, BaseAmount: decimal.NewFromInt(1), Active: true},
		},
		{
			name:     "tiered schedule without segments",
			schedule: tieredSchedule(bankID),
			wantErr:  ErrNoSegments,
		},
		{
			name:     "empty range",
			schedule: tieredSchedule(bankID, seg(100, 100, "1.00")),
			wantErr:  ErrEmptySegment,
		},
		{
			name:     "overlapping ranges",
			schedule: tieredSchedule(bankID, seg(0, 100, "1.00"), seg(50, 200, "2.00")),
			wantErr:  ErrOverlappingSegments,
		},
		{
			name:     "adjacent ranges are fine",
			schedule: tieredSchedule(bankID, seg(0, 100, "1.00"), seg(100, 500, "2.00")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
