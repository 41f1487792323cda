package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/bank"
	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/commission"
)

// CommissionRepository keeps commission schedules in memory.
type CommissionRepository struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]*commission.Schedule
}

func NewCommissionRepository() *CommissionRepository {
	return &CommissionRepository{schedules: make(map[uuid.UUID]*commission.Schedule)}
}

func (r *CommissionRepository) GetActiveByBank(ctx context.Context, bankID uuid.UUID) (*commission.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.schedules {
		if s.BankID == bankID && s.Active {
			out := cloneSchedule(s)
			return out, nil
		}
	}
	return nil, commission.ErrMissingSchedule
}

func (r *CommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*commission.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, commission.ErrMissingSchedule
	}
	return cloneSchedule(s), nil
}

func (r *CommissionRepository) Save(ctx context.Context, schedule *commission.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

func cloneSchedule(s *commission.Schedule) *commission.Schedule {
	out := *s
	out.Segments = make([]commission.Segment, len(s.Segments))
	copy(out.Segments, s.Segments)
	return &out
}

// BankRepository keeps partner banks in memory.
type BankRepository struct {
	mu    sync.RWMutex
	banks map[uuid.UUID]*bank.Bank
}

func NewBankRepository() *BankRepository {
	return &BankRepository{banks: make(map[uuid.UUID]*bank.Bank)}
}

// Save registers a bank. Used by seeding and tests.
func (r *BankRepository) Save(ctx context.Context, b *bank.Bank) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *b
	r.banks[b.ID] = &stored
	return nil
}

func (r *BankRepository) GetByID(ctx context.Context, id uuid.UUID) (*bank.Bank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.banks[id]
	if !ok {
		return nil, bank.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *BankRepository) GetByCommercialName(ctx context.Context, name string) (*bank.Bank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.banks {
		if b.CommercialName == name {
			out := *b
			return &out, nil
		}
	}
	return nil, bank.ErrNotFound
}
