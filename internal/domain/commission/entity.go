package commission

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Segment maps a half-open transaction-count range [From, To) to a fixed fee.
type Segment struct {
	ID         uuid.UUID       `json:"id"`
	ScheduleID uuid.UUID       `json:"schedule_id"`
	From       int64           `json:"from"`
	To         int64           `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
}

// Contains reports whether count falls inside the segment's range.
func (s Segment) Contains(count int64) bool {
	return count >= s.From && count < s.To
}

// Schedule is a bank's commission configuration: either a flat fee or an
// ordered set of count-tiered segments.
type Schedule struct {
	ID     uuid.UUID `json:"id"`
	BankID uuid.UUID `json:"bank_id"`

	// ManagesSegments selects tiered pricing. When false BaseAmount is
	// charged regardless of volume.
	ManagesSegments bool            `json:"manages_segments"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	Segments        []Segment       `json:"segments,omitempty"`

	Active bool `json:"active"`
}

// Validate checks the segment invariants for a tiered schedule: every range
// must be non-empty, and ranges must not overlap. Enforced at configuration
// time so the resolver never has to self-heal.
func (s *Schedule) Validate() error {
	if !s.ManagesSegments {
		if s.BaseAmount.IsNegative() {
			return ErrNegativeAmount
		}
		return nil
	}
	if len(s.Segments) == 0 {
		return ErrNoSegments
	}
	ordered := make([]Segment, len(s.Segments))
	copy(ordered, s.Segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].From < ordered[j].From })
	for i, seg := range ordered {
		if seg.To <= seg.From {
			return ErrEmptySegment
		}
		if seg.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		if i > 0 && seg.From < ordered[i-1].To {
			return ErrOverlappingSegments
		}
	}
	return nil
}

// OrderedSegments returns the segments sorted by From ascending.
func (s *Schedule) OrderedSegments() []Segment {
	ordered := make([]Segment, len(s.Segments))
	copy(ordered, s.Segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].From < ordered[j].From })
	return ordered
}
