package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/hourly/internal/repository"
)

const (
	defaultWriteAttempts = 3
	defaultWriteBackoff  = 50 * time.Millisecond
)

// Repositories exposes typed repositories over a Store. Every operation
// runs as a unit under a store-wide lock, plus the store's own Lock when it
// implements Locker; writes are buffered and flushed when the unit ends.
// Reads always go to the store, so a unit sees writes committed by other
// Repositories over the same store.
type Repositories struct {
	store    Store
	logger   *slog.Logger
	mu       sync.Mutex
	attempts int
	backoff  time.Duration
}

// Option customizes Repositories.
type Option func(*Repositories)

// WithWriteRetry sets how often a failed save is attempted and the base of
// the linear backoff between attempts.
func WithWriteRetry(attempts int, backoff time.Duration) Option {
	return func(r *Repositories) {
		if attempts > 0 {
			r.attempts = attempts
		}
		if backoff >= 0 {
			r.backoff = backoff
		}
	}
}

// New wraps store.
func New(store Store, logger *slog.Logger, opts ...Option) *Repositories {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Repositories{
		store:    store,
		logger:   logger,
		attempts: defaultWriteAttempts,
		backoff:  defaultWriteBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Contracts returns the contract repository.
func (r *Repositories) Contracts() *ContractRepository { return &ContractRepository{r: r} }

// Entries returns the time entry repository.
func (r *Repositories) Entries() *EntryRepository { return &EntryRepository{r: r} }

// Sessions returns the active session repository.
func (r *Repositories) Sessions() *SessionRepository { return &SessionRepository{r: r} }

// Settlements returns the settlement repository.
func (r *Repositories) Settlements() *SettlementRepository { return &SettlementRepository{r: r} }

// Activity returns the activity log repository.
func (r *Repositories) Activity() *ActivityRepository { return &ActivityRepository{r: r} }

type unitKey struct{}

// unit buffers the collections written during one unit of work.
type unit struct {
	owner   *Repositories
	pending map[string][]byte
	order   []string
}

func (u *unit) put(collection string, data []byte) {
	if _, ok := u.pending[collection]; !ok {
		u.order = append(u.order, collection)
	}
	u.pending[collection] = data
}

// WithinTx runs fn as one unit. Nested calls join the outer unit.
func (r *Repositories) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.run(ctx, func(ctx context.Context, _ *unit) error {
		return fn(ctx)
	})
}

func (r *Repositories) run(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok && u.owner == r {
		return fn(ctx, u)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if locker, ok := r.store.(Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return fmt.Errorf("acquire store lock: %w", err)
		}
		defer unlock()
	}

	u := &unit{owner: r, pending: make(map[string][]byte)}
	if err := fn(context.WithValue(ctx, unitKey{}, u), u); err != nil {
		return err
	}
	return r.commit(ctx, u)
}

// commit flushes the unit. If a save fails after earlier collections were
// written, those are restored to their previous content.
func (r *Repositories) commit(ctx context.Context, u *unit) error {
	written := make(map[string][]byte, len(u.order))
	var flushed []string
	for _, collection := range u.order {
		previous, err := r.store.Load(ctx, collection)
		if err != nil {
			r.rollback(ctx, flushed, written)
			return fmt.Errorf("%w: snapshot %s: %v", repository.ErrWriteFailed, collection, err)
		}
		if err := r.save(ctx, collection, u.pending[collection]); err != nil {
			r.rollback(ctx, flushed, written)
			return err
		}
		written[collection] = previous
		flushed = append(flushed, collection)
	}
	return nil
}

func (r *Repositories) rollback(ctx context.Context, flushed []string, previous map[string][]byte) {
	for _, collection := range flushed {
		data := previous[collection]
		if data == nil {
			data = []byte("[]")
		}
		if err := r.save(ctx, collection, data); err != nil {
			r.logger.Error("rollback failed", "collection", collection, "error", err)
		}
	}
}

// save writes with linear backoff between attempts.
func (r *Repositories) save(ctx context.Context, collection string, data []byte) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = r.store.Save(ctx, collection, data); err == nil {
			return nil
		}
		r.logger.Warn("collection write failed", "collection", collection, "attempt", attempt, "error", err)
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", repository.ErrWriteFailed, collection, ctx.Err())
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return fmt.Errorf("%w: %s: %v", repository.ErrWriteFailed, collection, err)
}

// load decodes a collection as seen by the unit. Undecodable content is
// treated as an empty collection; a failed read is returned, since a unit
// that went on with an empty view would overwrite the stored data.
func load[T any](ctx context.Context, u *unit, collection string) ([]T, error) {
	data, ok := u.pending[collection]
	if !ok {
		var err error
		data, err = u.owner.store.Load(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", collection, err)
		}
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		u.owner.logger.Warn("corrupt collection treated as empty", "collection", collection, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func persist[T any](u *unit, collection string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	u.put(collection, data)
	return nil
}
