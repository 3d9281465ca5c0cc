// Package app assembles the domain services over the configured backend.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/hourly/internal/blobstore"
	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/config"
	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/report"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/keylock"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/rpggio/hourly/internal/seed"
	"github.com/rpggio/hourly/internal/sqlite"
)

// ContractStore is everything the services need from contract storage.
type ContractStore interface {
	contract.Repository
	tracking.ContractRepository
	payment.ContractRepository
}

// EntryStore is everything the services need from time entry storage.
type EntryStore interface {
	tracking.EntryRepository
	payment.EntryRepository
}

// ActorResolver maps bearer tokens to actors.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (contract.Actor, error)
}

// Stores is one backend's set of repositories.
type Stores struct {
	Tx          repository.Transactor
	Contracts   ContractStore
	Entries     EntryStore
	Sessions    tracking.SessionRepository
	Settlements payment.SettlementRepository
	Activity    activity.Repository
	// APIKeys is nil for backends without key storage.
	APIKeys *sqlite.APIKeyRepository
	// DB is set for the sqlite backend.
	DB *sqlite.DB
}

// SQLiteStores builds the stores over an open database.
func SQLiteStores(db *sqlite.DB) Stores {
	return Stores{
		Tx:          db,
		Contracts:   sqlite.NewContractRepository(db),
		Entries:     sqlite.NewTimeEntryRepository(db),
		Sessions:    sqlite.NewActiveSessionRepository(db),
		Settlements: sqlite.NewSettlementRepository(db),
		Activity:    sqlite.NewActivityRepository(db),
		APIKeys:     sqlite.NewAPIKeyRepository(db),
		DB:          db,
	}
}

// BlobStores builds the stores over a key-value blob store.
func BlobStores(store blobstore.Store, logger *slog.Logger, opts ...blobstore.Option) Stores {
	repos := blobstore.New(store, logger, opts...)
	return Stores{
		Tx:          repos,
		Contracts:   repos.Contracts(),
		Entries:     repos.Entries(),
		Sessions:    repos.Sessions(),
		Settlements: repos.Settlements(),
		Activity:    repos.Activity(),
	}
}

// Services are the domain entry points.
type Services struct {
	Contracts *contract.Service
	Tracking  *tracking.Service
	Payments  *payment.Service
	Reports   *report.Service
	Activity  *activity.Service
}

// App is an assembled backend plus its services.
type App struct {
	Services
	Stores Stores
	Clock  clock.Clock
	closer io.Closer
}

// Option customizes assembly.
type Option func(*options)

type options struct {
	clock    clock.Clock
	activity tracking.ActivitySource
}

// WithClock sets the time source of every service.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithActivitySource sets the engagement metric source.
func WithActivitySource(src tracking.ActivitySource) Option {
	return func(o *options) { o.activity = src }
}

// New wires services over stores. Tracking and payments share one lock set
// so read-modify-write cycles on a contract never interleave.
func New(stores Stores, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	clk := clock.OrSystem(o.clock)
	locks := keylock.New()

	trackingOpts := []tracking.Option{tracking.WithClock(clk), tracking.WithLocks(locks)}
	if o.activity != nil {
		trackingOpts = append(trackingOpts, tracking.WithActivitySource(o.activity))
	}

	return &App{
		Services: Services{
			Contracts: contract.NewService(stores.Contracts, stores.Entries, stores.Sessions, stores.Activity, clk, logger),
			Tracking:  tracking.NewService(stores.Contracts, stores.Entries, stores.Sessions, stores.Activity, stores.Tx, logger, trackingOpts...),
			Payments: payment.NewService(stores.Contracts, stores.Entries, stores.Settlements, stores.Activity, stores.Tx, logger,
				payment.WithClock(clk), payment.WithLocks(locks)),
			Reports:  report.NewService(stores.Contracts, stores.Entries, logger),
			Activity: activity.NewService(stores.Activity, logger),
		},
		Stores: stores,
		Clock:  clk,
	}
}

// Open builds the backend cfg selects, seeds it when asked and wires the
// services.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var stores Stores
	var closer io.Closer
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		stores = SQLiteStores(db)
		closer = db
	case config.DriverFile:
		fs, err := blobstore.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		stores = BlobStores(fs, logger)
	case config.DriverMemory:
		stores = BlobStores(blobstore.NewMemoryStore(), logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	a := New(stores, logger, opts...)
	a.closer = closer

	if cfg.SeedDemo {
		if _, err := a.SeedDemo(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Info("storage ready", "driver", cfg.Driver)
	return a, nil
}

// SeedDemo loads the demo fixture if the store has no contracts. It reports
// whether anything was written.
func (a *App) SeedDemo(ctx context.Context) (bool, error) {
	fixture, err := seed.Demo()
	if err != nil {
		return false, err
	}
	return seed.Apply(ctx, a.Stores.Tx, a.Stores.Contracts, a.Stores.Entries, fixture, a.Clock.Now())
}

// Close releases the backend.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
