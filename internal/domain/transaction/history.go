package transaction

import (
	"time"

	"github.com/google/uuid"
)

// StateTransitionRecord is one append-only entry in the history ledger.
// Records are written exclusively by the lifecycle manager as the second
// half of an atomic status change and are never updated or deleted.
type StateTransitionRecord struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Status        Status    `json:"status"`
	Detail        string    `json:"detail,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// NewStateTransitionRecord builds a ledger entry for a transaction that just
// reached status at the given instant. The instant must be the same time
// basis used to stamp the transaction update.
func NewStateTransitionRecord(transactionID uuid.UUID, status Status, detail string, at time.Time) *StateTransitionRecord {
	return &StateTransitionRecord{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Status:        status,
		Detail:        detail,
		RecordedAt:    at,
	}
}
