package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/keylock"
	"github.com/rpggio/hourly/internal/repository"
)

const defaultSearchLimit = 50

// Service runs the start/stop session protocol and turns sessions into
// time entries.
type Service struct {
	contracts  ContractRepository
	entries    EntryRepository
	sessions   SessionRepository
	activities activity.Repository
	tx         repository.Transactor
	locks      *keylock.Set
	clock      clock.Clock
	scores     ActivitySource
	logger     *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = clock.OrSystem(c) }
}

// WithActivitySource sets the engagement metric source.
func WithActivitySource(src ActivitySource) Option {
	return func(s *Service) {
		if src != nil {
			s.scores = src
		}
	}
}

// WithLocks shares a per-contract lock set with other services that mutate
// the same contracts.
func WithLocks(locks *keylock.Set) Option {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// NewService creates a new tracking service.
func NewService(
	contracts ContractRepository,
	entries EntryRepository,
	sessions SessionRepository,
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
		contracts:  contracts,
		entries:    entries,
		sessions:   sessions,
		activities: activities,
		tx:         tx,
		locks:      keylock.New(),
		clock:      clock.System{},
		scores:     RandomActivity{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session on an active contract.
func (s *Service) Start(ctx context.Context, contractID string) (*timeentry.ActiveSession, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, ErrInvalidInput
	}

	unlock := s.locks.Lock(contractID)
	defer unlock()

	var sess *timeentry.ActiveSession
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.loadContract(ctx, contractID)
		if err != nil {
			return err
		}
		if c.Status != contract.StatusActive {
			return fmt.Errorf("%w: status is %s", ErrContractNotActive, c.Status)
		}

		now := s.clock.Now()
		candidate := &timeentry.ActiveSession{
			ID:           uuid.NewString(),
			ContractID:   c.ID,
			FreelancerID: c.FreelancerID,
			StartTime:    now,
			UpdatedAt:    now,
		}
		if err := s.sessions.CreateIfAbsent(ctx, candidate); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrSessionAlreadyActive
			}
			return fmt.Errorf("creating session: %w", err)
		}

		activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
			ContractID:   c.ID,
			ActorID:      c.FreelancerID,
			ActivityType: activity.TypeTrackingStarted,
			Summary:      fmt.Sprintf("tracking started on contract %s", c.ID),
			CreatedAt:    now,
		})
		sess = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tracking started", "contract_id", contractID, "session_id", sess.ID)
	return sess, nil
}

// UpdateNotes patches the work-in-progress notes of the open session.
func (s *Service) UpdateNotes(ctx context.Context, contractID, notes string) error {
	if strings.TrimSpace(contractID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.UpdateNotes(ctx, contractID, notes, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("updating session notes: %w", err)
	}
	return nil
}

// Stop closes the open session and records it as a pending time entry.
func (s *Service) Stop(ctx context.Context, req StopRequest) (*StopResult, error) {
	return s.stop(ctx, req, activity.TypeTrackingStopped, "", func(desc string) string { return desc })
}

// Pause is Stop with the entry annotated as a pause. Pausing settles the
// elapsed time exactly like stopping; resuming starts a new session.
func (s *Service) Pause(ctx context.Context, contractID, notes string) (*StopResult, error) {
	result, err := s.stop(ctx, StopRequest{ContractID: contractID, Notes: notes}, activity.TypeTrackingStopped, "", func(desc string) string {
		return strings.TrimSpace(desc + " " + pausedSuffix)
	})
	if err != nil {
		return nil, err
	}
	result.Paused = true
	return result, nil
}

// ForceStop lets an administrator close someone else's session. The elapsed
// time is still recorded so no logged work disappears.
func (s *Service) ForceStop(ctx context.Context, contractID, actorID, reason string) (*StopResult, error) {
	label := forceStoppedLabel
	if r := strings.TrimSpace(reason); r != "" {
		label += ": " + r
	}
	return s.stop(ctx, StopRequest{ContractID: contractID}, activity.TypeTrackingForceStopped, actorID, func(desc string) string {
		return strings.TrimSpace(desc + " [" + label + "]")
	})
}

// ActiveSession returns the open session of a contract.
func (s *Service) ActiveSession(ctx context.Context, contractID string) (*timeentry.ActiveSession, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// ListActiveSessions returns every open session, oldest first.
func (s *Service) ListActiveSessions(ctx context.Context) ([]timeentry.ActiveSession, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// ListEntries returns a contract's entries, most recent first.
func (s *Service) ListEntries(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error) {
	if _, err := s.loadContract(ctx, contractID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	timeentry.SortByStartDesc(entries)
	return entries, nil
}

// SearchEntries finds entries whose description matches query. An empty
// contractID searches every contract.
func (s *Service) SearchEntries(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	entries, err := s.entries.Search(ctx, contractID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	return entries, nil
}

// Elapsed reports the live duration of sess as of now, floored to seconds.
func (s *Service) Elapsed(sess timeentry.ActiveSession) time.Duration {
	return timeentry.Elapsed(sess.StartTime, s.clock.Now())
}

func (s *Service) stop(
	ctx context.Context,
	req StopRequest,
	eventType activity.ActivityType,
	actorID string,
	describe func(string) string,
) (*StopResult, error) {
	if strings.TrimSpace(req.ContractID) == "" {
		return nil, ErrInvalidInput
	}

	unlock := s.locks.Lock(req.ContractID)
	defer unlock()

	var result *StopResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sess, err := s.sessions.Get(ctx, req.ContractID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("loading session: %w", err)
		}
		if sess != nil && req.SessionID != "" && sess.ID != req.SessionID {
			return ErrSessionChanged
		}
		if sess == nil {
			if replay := s.replay(ctx, req); replay != nil {
				result = replay
				return nil
			}
			return ErrNoActiveSession
		}

		c, err := s.loadContract(ctx, req.ContractID)
		if err != nil {
			return err
		}

		end := s.clock.Now()
		minutes, earnings := timeentry.Price(sess.StartTime, end, c.HourlyRate)

		description := strings.TrimSpace(req.Notes)
		if description == "" {
			description = strings.TrimSpace(sess.Notes)
		}

		entry := timeentry.TimeEntry{
			ID:              sess.ID,
			ContractID:      c.ID,
			FreelancerID:    sess.FreelancerID,
			StartTime:       sess.StartTime,
			EndTime:         end,
			DurationMinutes: minutes,
			HourlyRate:      c.HourlyRate,
			Earnings:        earnings,
			Description:     describe(description),
			ActivityScore:   clampScore(s.scores.Score(ctx, *sess, end)),
			Screenshots:     []string{},
			Status:          timeentry.StatusPending,
			CreatedAt:       end,
		}

		// Entry first, then the aggregate, then the session: a failure at
		// any step rolls the unit back and leaves the session open.
		if err := s.entries.Create(ctx, &entry); err != nil {
			return fmt.Errorf("creating time entry: %w", err)
		}
		hours := minutes / 60
		if err := s.contracts.AddHours(ctx, c.ID, hours, end); err != nil {
			return fmt.Errorf("adding hours: %w", err)
		}
		if err := s.sessions.Delete(ctx, c.ID, sess.ID); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}

		if actorID == "" {
			actorID = sess.FreelancerID
		}
		activity.Record(ctx, s.activities, s.logger, &activity.ActivityEntry{
			ContractID:   c.ID,
			ActorID:      actorID,
			EntryID:      &entry.ID,
			ActivityType: eventType,
			Summary:      fmt.Sprintf("logged %.2f minutes on contract %s", minutes, c.ID),
			CreatedAt:    end,
		})

		result = &StopResult{Entry: entry, HoursAdded: hours}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		s.logger.Info("tracking stopped",
			"contract_id", req.ContractID,
			"entry_id", result.Entry.ID,
			"duration_minutes", result.Entry.DurationMinutes,
			"earnings", result.Entry.Earnings,
		)
	}
	return result, nil
}

// replay returns the entry an earlier stop of req.SessionID produced.
func (s *Service) replay(ctx context.Context, req StopRequest) *StopResult {
	if req.SessionID == "" {
		return nil
	}
	entry, err := s.entries.Get(ctx, req.SessionID)
	if err != nil || entry.ContractID != req.ContractID {
		return nil
	}
	return &StopResult{Entry: *entry, Replayed: true}
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
