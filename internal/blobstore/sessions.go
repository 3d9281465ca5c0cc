package blobstore

import (
	"context"
	"sort"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// SessionRepository stores open sessions in the active_sessions collection.
type SessionRepository struct {
	r *Repositories
}

// CreateIfAbsent adds sess unless its contract already has a session. The
// check and the write happen under the same unit lock.
func (s *SessionRepository) CreateIfAbsent(ctx context.Context, sess *timeentry.ActiveSession) error {
	return s.r.run(ctx, func(ctx context.Context, u *unit) error {
		if err := requireContract(ctx, u, sess.ContractID); err != nil {
			return err
		}
		items, err := load[timeentry.ActiveSession](ctx, u, CollectionSessions)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ContractID == sess.ContractID {
				return repository.ErrAlreadyExists
			}
		}
		return persist(u, CollectionSessions, append(items, *sess))
	})
}

// Get returns the contract's open session.
func (s *SessionRepository) Get(ctx context.Context, contractID string) (*timeentry.ActiveSession, error) {
	var found *timeentry.ActiveSession
	err := s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.ActiveSession](ctx, u, CollectionSessions)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ContractID == contractID {
				found = &items[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

// UpdateNotes replaces the session notes.
func (s *SessionRepository) UpdateNotes(ctx context.Context, contractID, notes string, at time.Time) error {
	return s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.ActiveSession](ctx, u, CollectionSessions)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ContractID == contractID {
				items[i].Notes = notes
				items[i].UpdatedAt = at
				return persist(u, CollectionSessions, items)
			}
		}
		return repository.ErrNotFound
	})
}

// Delete removes the contract's session if it is still sessionID.
func (s *SessionRepository) Delete(ctx context.Context, contractID, sessionID string) error {
	return s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.ActiveSession](ctx, u, CollectionSessions)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ContractID == contractID && items[i].ID == sessionID {
				remaining := append(items[:i:i], items[i+1:]...)
				return persist(u, CollectionSessions, remaining)
			}
		}
		return repository.ErrNotFound
	})
}

// List returns every open session, oldest first.
func (s *SessionRepository) List(ctx context.Context) ([]timeentry.ActiveSession, error) {
	var out []timeentry.ActiveSession
	err := s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.ActiveSession](ctx, u, CollectionSessions)
		out = items
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}
