package payment

import (
	"context"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
)

// ContractRepository provides the paid aggregate.
type ContractRepository interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
	AddPaid(ctx context.Context, id string, amount float64, at time.Time) error
}

// EntryRepository moves entries through their settlement states.
type EntryRepository interface {
	Get(ctx context.Context, id string) (*timeentry.TimeEntry, error)
	ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
	// Approve moves a pending entry to approved. It returns
	// repository.ErrConflict when the entry is no longer pending.
	Approve(ctx context.Context, id string, at time.Time) error
	// MarkPaid moves the outstanding entries among ids to paid.
	MarkPaid(ctx context.Context, ids []string, settlementID string, at time.Time) error
}

// SettlementRepository persists settlements.
type SettlementRepository interface {
	Create(ctx context.Context, s *Settlement) error
	GetByKey(ctx context.Context, key string) (*Settlement, error)
	ListByContract(ctx context.Context, contractID string) ([]Settlement, error)
}
