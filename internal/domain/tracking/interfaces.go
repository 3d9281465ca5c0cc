package tracking

import (
	"context"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
)

// ContractRepository provides rate lookup and the hours aggregate.
type ContractRepository interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
	AddHours(ctx context.Context, id string, hours float64, at time.Time) error
}

// EntryRepository persists completed sessions.
type EntryRepository interface {
	Create(ctx context.Context, entry *timeentry.TimeEntry) error
	Get(ctx context.Context, id string) (*timeentry.TimeEntry, error)
	ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
	Search(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error)
}

// SessionRepository persists open sessions, one per contract.
type SessionRepository interface {
	// CreateIfAbsent inserts sess unless its contract already has a session,
	// in which case it returns repository.ErrAlreadyExists.
	CreateIfAbsent(ctx context.Context, sess *timeentry.ActiveSession) error
	Get(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
	UpdateNotes(ctx context.Context, contractID, notes string, at time.Time) error
	// Delete removes the contract's session only if it is still sessionID.
	Delete(ctx context.Context, contractID, sessionID string) error
	List(ctx context.Context) ([]timeentry.ActiveSession, error)
}
