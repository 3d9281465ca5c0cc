package blobstore

import (
	"context"
	"strings"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// EntryRepository stores time entries in the time_entries collection.
type EntryRepository struct {
	r *Repositories
}

// Create adds an entry. Its contract must exist.
func (e *EntryRepository) Create(ctx context.Context, entry *timeentry.TimeEntry) error {
	return e.r.run(ctx, func(ctx context.Context, u *unit) error {
		if err := requireContract(ctx, u, entry.ContractID); err != nil {
			return err
		}
		items, err := load[timeentry.TimeEntry](ctx, u, CollectionEntries)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == entry.ID {
				return repository.ErrAlreadyExists
			}
		}
		stored := *entry
		if stored.Screenshots == nil {
			stored.Screenshots = []string{}
		}
		return persist(u, CollectionEntries, append(items, stored))
	})
}

// Get finds an entry by ID.
func (e *EntryRepository) Get(ctx context.Context, id string) (*timeentry.TimeEntry, error) {
	var found *timeentry.TimeEntry
	err := e.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.TimeEntry](ctx, u, CollectionEntries)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				found = &items[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

// ListByContract returns a contract's entries, most recent first.
func (e *EntryRepository) ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error) {
	return e.filter(ctx, func(entry timeentry.TimeEntry) bool {
		return entry.ContractID == contractID
	})
}

// Search matches entries whose description contains every term of query,
// ignoring case. An empty contractID searches all contracts.
func (e *EntryRepository) Search(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []timeentry.TimeEntry{}, nil
	}
	matches, err := e.filter(ctx, func(entry timeentry.TimeEntry) bool {
		if contractID != "" && entry.ContractID != contractID {
			return false
		}
		description := strings.ToLower(entry.Description)
		for _, term := range terms {
			if !strings.Contains(description, term) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Approve moves a pending entry to approved.
func (e *EntryRepository) Approve(ctx context.Context, id string, at time.Time) error {
	return e.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.TimeEntry](ctx, u, CollectionEntries)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if !items[i].Status.Advances(timeentry.StatusApproved) {
				return repository.ErrConflict
			}
			approvedAt := at
			items[i].Status = timeentry.StatusApproved
			items[i].ApprovedAt = &approvedAt
			return persist(u, CollectionEntries, items)
		}
		return repository.ErrNotFound
	})
}

// MarkPaid moves the outstanding entries among ids to paid.
func (e *EntryRepository) MarkPaid(ctx context.Context, ids []string, settlementID string, at time.Time) error {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return e.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.TimeEntry](ctx, u, CollectionEntries)
		if err != nil {
			return err
		}
		changed := false
		for i := range items {
			if _, ok := wanted[items[i].ID]; !ok || !items[i].Status.Advances(timeentry.StatusPaid) {
				continue
			}
			paidAt := at
			sid := settlementID
			items[i].Status = timeentry.StatusPaid
			items[i].PaidAt = &paidAt
			items[i].SettlementID = &sid
			changed = true
		}
		if !changed {
			return nil
		}
		return persist(u, CollectionEntries, items)
	})
}

func (e *EntryRepository) filter(ctx context.Context, keep func(timeentry.TimeEntry) bool) ([]timeentry.TimeEntry, error) {
	var out []timeentry.TimeEntry
	err := e.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[timeentry.TimeEntry](ctx, u, CollectionEntries)
		if err != nil {
			return err
		}
		out = make([]timeentry.TimeEntry, 0, len(items))
		for _, entry := range items {
			if keep(entry) {
				out = append(out, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	timeentry.SortByStartDesc(out)
	return out, nil
}

func requireContract(ctx context.Context, u *unit, contractID string) error {
	contracts, err := load[contractRef](ctx, u, CollectionContracts)
	if err != nil {
		return err
	}
	for _, c := range contracts {
		if c.ID == contractID {
			return nil
		}
	}
	return repository.ErrNotFound
}

// contractRef decodes only the id of a stored contract.
type contractRef struct {
	ID string `json:"id"`
}
