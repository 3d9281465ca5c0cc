package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/keylock"
	"github.com/rpggio/hourly/internal/repository"
)

// Service approves time entries and settles what a contract owes.
type Service struct {
	contracts   ContractRepository
	entries     EntryRepository
	settlements SettlementRepository
	activities  activity.Repository
	tx          repository.Transactor
	locks       *keylock.Set
	clock       clock.Clock
	logger      *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = clock.OrSystem(c) }
}

// WithLocks shares a per-contract lock set with the tracking service.
func WithLocks(locks *keylock.Set) Option {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// NewService creates a new payment service.
func NewService(
	contracts ContractRepository,
	entries EntryRepository,
	settlements SettlementRepository,
	activities activity.Repository,
	tx repository.Transactor,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if tx == nil {
		tx = repository.Passthrough
	}
	s := &Service{
		contracts:   contracts,
		entries:     entries,
		settlements: settlements,
		activities:  activities,
		tx:          tx,
		locks:       keylock.New(),
		clock:       clock.System{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve moves a pending entry to approved. Approving an approved or paid
// entry returns it unchanged.
func (s *Service) Approve(ctx context.Context, entryID string) (*timeentry.TimeEntry, error) {
	if strings.TrimSpace(entryID) == "" {
		return nil, ErrInvalidInput
	}

	entry, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != timeentry.StatusPending {
		return entry, nil
	}

	unlock := s.locks.Lock(entry.ContractID)
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		if err := s.entries.Approve(ctx, entryID, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil
			}
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("approving entry: %w", err)
		}
		activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
			ContractID:   entry.ContractID,
			EntryID:      &entry.ID,
			ActivityType: activity.TypeEntryApproved,
			Summary:      fmt.Sprintf("approved entry %s", entry.ID),
			CreatedAt:    now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadEntry(ctx, entryID)
}

// PendingEarnings sums the earnings of the contract's pending and approved
// entries.
func (s *Service) PendingEarnings(ctx context.Context, contractID string) (float64, error) {
	if _, err := s.loadContract(ctx, contractID); err != nil {
		return 0, err
	}
	entries, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}
	return timeentry.PendingEarnings(entries), nil
}

// PayDue settles every outstanding entry of the contract. A zero amount
// means nothing was due and nothing was written.
func (s *Service) PayDue(ctx context.Context, req PayRequest) (*SettlementResult, error) {
	return s.settle(ctx, req.ContractID, req.IdempotencyKey, func(entries []timeentry.TimeEntry) ([]timeentry.TimeEntry, error) {
		return entries, nil
	})
}

// PayEntries settles the outstanding entries among req.EntryIDs. Entries
// already paid are skipped; ids not on the contract fail the whole call.
func (s *Service) PayEntries(ctx context.Context, req PayEntriesRequest) (*SettlementResult, error) {
	if len(req.EntryIDs) == 0 {
		return nil, ErrInvalidInput
	}
	wanted := make(map[string]struct{}, len(req.EntryIDs))
	for _, id := range req.EntryIDs {
		wanted[id] = struct{}{}
	}

	return s.settle(ctx, req.ContractID, req.IdempotencyKey, func(entries []timeentry.TimeEntry) ([]timeentry.TimeEntry, error) {
		var chosen []timeentry.TimeEntry
		for _, e := range entries {
			if _, ok := wanted[e.ID]; ok {
				chosen = append(chosen, e)
			}
		}
		if len(chosen) != len(wanted) {
			return nil, ErrEntryNotFound
		}
		return chosen, nil
	})
}

// ListSettlements returns the contract's settlements, oldest first.
func (s *Service) ListSettlements(ctx context.Context, contractID string) ([]Settlement, error) {
	if _, err := s.loadContract(ctx, contractID); err != nil {
		return nil, err
	}
	settlements, err := s.settlements.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("listing settlements: %w", err)
	}
	return settlements, nil
}

func (s *Service) settle(
	ctx context.Context,
	contractID, key string,
	choose func([]timeentry.TimeEntry) ([]timeentry.TimeEntry, error),
) (*SettlementResult, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, ErrInvalidInput
	}
	key = strings.TrimSpace(key)

	unlock := s.locks.Lock(contractID)
	defer unlock()

	var result *SettlementResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if key != "" {
			prior, err := s.settlements.GetByKey(ctx, key)
			switch {
			case err == nil:
				if prior.ContractID != contractID {
					return ErrIdempotencyKeyReused
				}
				result = &SettlementResult{
					Settlement:  prior,
					Amount:      prior.Amount,
					EntriesPaid: len(prior.EntryIDs),
					Replayed:    true,
				}
				return nil
			case !errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("loading settlement: %w", err)
			}
		}

		c, err := s.loadContract(ctx, contractID)
		if err != nil {
			return err
		}

		all, err := s.entries.ListByContract(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("listing entries: %w", err)
		}
		chosen, err := choose(all)
		if err != nil {
			return err
		}

		ids, amount := outstanding(chosen)
		if len(ids) == 0 {
			result = &SettlementResult{}
			return nil
		}

		now := s.clock.Now()
		settlement := &Settlement{
			ID:         uuid.NewString(),
			ContractID: c.ID,
			Amount:     amount,
			EntryIDs:   ids,
			PaidAt:     now,
		}
		if key != "" {
			settlement.IdempotencyKey = &key
		}

		if err := s.settlements.Create(ctx, settlement); err != nil {
			return fmt.Errorf("recording settlement: %w", err)
		}
		if err := s.entries.MarkPaid(ctx, ids, settlement.ID, now); err != nil {
			return fmt.Errorf("marking entries paid: %w", err)
		}
		if err := s.contracts.AddPaid(ctx, c.ID, amount, now); err != nil {
			return fmt.Errorf("adding paid total: %w", err)
		}

		activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
			ContractID:   c.ID,
			ActorID:      c.ClientID,
			ActivityType: activity.TypeContractSettled,
			Summary:      fmt.Sprintf("settled %d entries for %.2f", len(ids), amount),
			CreatedAt:    now,
		})

		result = &SettlementResult{Settlement: settlement, Amount: amount, EntriesPaid: len(ids)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Settlement != nil && !result.Replayed {
		s.logger.Info("contract settled",
			"contract_id", contractID,
			"settlement_id", result.Settlement.ID,
			"amount", result.Amount,
			"entries", result.EntriesPaid,
		)
	}
	return result, nil
}

func (s *Service) loadEntry(ctx context.Context, id string) (*timeentry.TimeEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("loading entry: %w", err)
	}
	return entry, nil
}

func (s *Service) loadContract(ctx context.Context, id string) (*contract.Contract, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, contract.ErrContractNotFound
		}
		return nil, fmt.Errorf("loading contract: %w", err)
	}
	return c, nil
}
