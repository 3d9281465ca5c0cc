package blobstore

import (
	"context"
	"sort"
	"time"

	"github.com/rpggio/hourly/internal/domain/activity"
)

// ActivityRepository stores the audit log in the activity collection.
type ActivityRepository struct {
	r *Repositories
}

// Log appends an entry and assigns its ID.
func (a *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	return a.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[activity.ActivityEntry](ctx, u, CollectionActivity)
		if err != nil {
			return err
		}
		var maxID int64
		for _, item := range items {
			maxID = max(maxID, item.ID)
		}
		entry.ID = maxID + 1
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		return persist(u, CollectionActivity, append(items, *entry))
	})
}

// List returns matching entries, newest first.
func (a *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	var out []activity.ActivityEntry
	err := a.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[activity.ActivityEntry](ctx, u, CollectionActivity)
		if err != nil {
			return err
		}
		out = make([]activity.ActivityEntry, 0, len(items))
		for _, item := range items {
			if opts.ContractID != "" && item.ContractID != opts.ContractID {
				continue
			}
			if opts.EntryID != nil && (item.EntryID == nil || *item.EntryID != *opts.EntryID) {
				continue
			}
			if opts.ActivityType != nil && item.ActivityType != *opts.ActivityType {
				continue
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []activity.ActivityEntry{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}
