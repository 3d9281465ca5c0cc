package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// enrichConcurrency bounds the per-contract lookups a listing fans out.
const enrichConcurrency = 8

// Service handles contract lifecycle operations.
type Service struct {
	contracts  Repository
	entries    EntryRepository
	sessions   SessionRepository
	activities activity.Repository
	clock      clock.Clock
	logger     *slog.Logger
}

// NewService creates a new contract service.
func NewService(
	contracts Repository,
	entries EntryRepository,
	sessions SessionRepository,
	activities activity.Repository,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		contracts:  contracts,
		entries:    entries,
		sessions:   sessions,
		activities: activities,
		clock:      clock.OrSystem(clk),
		logger:     logger,
	}
}

// CreateRequest defines contract creation inputs.
type CreateRequest struct {
	Title          string
	ClientID       string
	ClientName     string
	FreelancerID   string
	FreelancerName string
	Type           Type
	HourlyRate     float64
	PaymentCycle   PaymentCycle
	// CreatedBy is the acting user recorded in the audit log.
	CreatedBy string
}

// Create creates a new active contract with zeroed totals.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Contract, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	cycle := req.PaymentCycle
	if cycle == "" {
		cycle = CycleWeekly
	}

	now := s.clock.Now()
	c := &Contract{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		ClientID:       strings.TrimSpace(req.ClientID),
		ClientName:     req.ClientName,
		FreelancerID:   strings.TrimSpace(req.FreelancerID),
		FreelancerName: req.FreelancerName,
		Type:           TypeHourly,
		HourlyRate:     req.HourlyRate,
		PaymentCycle:   cycle,
		Status:         StatusActive,
		StartDate:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating contract: %w", err)
	}

	activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
		ContractID:   c.ID,
		ActorID:      req.CreatedBy,
		ActivityType: activity.TypeContractCreated,
		Summary:      fmt.Sprintf("created contract %s between %s and %s", c.ID, c.ClientID, c.FreelancerID),
		CreatedAt:    now,
	})
	s.logger.Info("contract created", "contract_id", c.ID, "client_id", c.ClientID, "freelancer_id", c.FreelancerID, "actor_id", req.CreatedBy)

	return c, nil
}

// Get fetches a contract by ID.
func (s *Service) Get(ctx context.Context, id string) (*Contract, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("getting contract: %w", err)
	}
	return c, nil
}

// GetSummary fetches a contract with its read-time aggregates.
func (s *Service) GetSummary(ctx context.Context, id string) (*Summary, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, *c)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// List returns the contracts visible to actor, enriched with pending
// earnings and active-session presence.
func (s *Service) List(ctx context.Context, actor Actor) ([]Summary, error) {
	filter, err := actor.Filter()
	if err != nil {
		return nil, err
	}

	contracts, err := s.contracts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}

	summaries := make([]Summary, len(contracts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range contracts {
		g.Go(func() error {
			summary, err := s.summarize(gctx, contracts[i])
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// SetStatus moves a contract through its lifecycle on behalf of actor.
// Illegal transitions are rejected with ErrIllegalStatusTransition.
func (s *Service) SetStatus(ctx context.Context, actor Actor, id string, to Status) (*Contract, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(current.Status, to); err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", err, current.Status, to)
	}

	now := s.clock.Now()
	if err := s.contracts.UpdateStatus(ctx, id, current.Status, to, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrContractNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: status changed concurrently", ErrIllegalStatusTransition)
		}
		return nil, fmt.Errorf("updating contract status: %w", err)
	}

	updated := *current
	updated.Status = to
	updated.UpdatedAt = now

	activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
		ContractID:   id,
		ActorID:      actor.ID,
		ActivityType: activity.TypeContractStatusChanged,
		Summary:      fmt.Sprintf("contract %s moved from %s to %s", id, current.Status, to),
		CreatedAt:    now,
	})
	s.logger.Info("contract status changed", "contract_id", id, "from", current.Status, "to", to, "actor_id", actor.ID)

	return &updated, nil
}

func (s *Service) summarize(ctx context.Context, c Contract) (Summary, error) {
	entries, err := s.entries.ListByContract(ctx, c.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("loading entries for %s: %w", c.ID, err)
	}

	summary := Summary{
		Contract:        c,
		EarningsPending: timeentry.PendingEarnings(entries),
	}

	sess, err := s.sessions.Get(ctx, c.ID)
	switch {
	case err == nil:
		summary.HasActiveSession = true
		start := sess.StartTime
		summary.ActiveSessionStart = &start
	case errors.Is(err, repository.ErrNotFound):
	default:
		return Summary{}, fmt.Errorf("loading session for %s: %w", c.ID, err)
	}

	return summary, nil
}
