package contract

import (
	"context"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
)

// Repository provides persistence for contracts.
type Repository interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, id string) (*Contract, error)
	List(ctx context.Context, filter ListFilter) ([]Contract, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}

// EntryRepository provides the entries pending earnings are folded from.
type EntryRepository interface {
	ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
}

// SessionRepository reports open tracking sessions.
type SessionRepository interface {
	Get(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
}
