package payment

import (
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
)

// Settlement records one payment covering a set of time entries.
type Settlement struct {
	ID             string    `json:"id"`
	ContractID     string    `json:"contract_id"`
	Amount         float64   `json:"amount"`
	EntryIDs       []string  `json:"entry_ids"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	PaidAt         time.Time `json:"paid_at"`
}

// PayRequest settles everything outstanding on a contract.
type PayRequest struct {
	ContractID string
	// IdempotencyKey makes a retried payment return the original settlement.
	IdempotencyKey string
}

// PayEntriesRequest settles a chosen subset of a contract's entries.
type PayEntriesRequest struct {
	ContractID     string
	EntryIDs       []string
	IdempotencyKey string
}

// SettlementResult reports what a payment did. Settlement is nil when
// nothing was due.
type SettlementResult struct {
	Settlement  *Settlement `json:"settlement,omitempty"`
	Amount      float64     `json:"amount"`
	EntriesPaid int         `json:"entries_paid"`
	Replayed    bool        `json:"replayed"`
}

func outstanding(entries []timeentry.TimeEntry) ([]string, float64) {
	var ids []string
	var total float64
	for _, e := range entries {
		if e.Status.Outstanding() {
			ids = append(ids, e.ID)
			total += e.Earnings
		}
	}
	return ids, total
}
