package commission

import "errors"

var (
	// ErrMissingSchedule is returned when a bank has no active schedule.
	ErrMissingSchedule = errors.New("no active commission schedule for bank")

	// ErrNoMatchingSegment is returned when a tiered schedule has a gap and
	// no segment contains the transaction count.
	ErrNoMatchingSegment = errors.New("no commission segment matches transaction count")

	ErrNoSegments          = errors.New("tiered schedule has no segments")
	ErrEmptySegment        = errors.New("segment upper bound must exceed lower bound")
	ErrOverlappingSegments = errors.New("schedule segments overlap")
	ErrNegativeAmount      = errors.New("commission amount cannot be negative")
)
