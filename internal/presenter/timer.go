package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/money"
	"github.com/rpggio/hourly/internal/notify"
)

// TimerSnapshot is what a timer view shows at one instant.
type TimerSnapshot struct {
	Running  bool
	Display  string
	Earnings string
	Notes    string
}

// TimerWidget is the live timer of one contract. The store is the source of
// truth; the widget only caches the last session it saw and recomputes the
// display from it.
type TimerWidget struct {
	contractID string
	tracker    Tracker
	contracts  Contracts
	format     money.Formatter
	notifier   notify.Notifier
	clock      clock.Clock
	logger     *slog.Logger

	mu      sync.Mutex
	rate    float64
	session *timeentry.ActiveSession
}

// TimerConfig carries the widget's collaborators. Zero values fall back to
// plain formatting, discarded notices and the system clock.
type TimerConfig struct {
	Format   money.Formatter
	Notifier notify.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// NewTimerWidget returns a widget for contractID. Call Refresh before reading.
func NewTimerWidget(contractID string, tracker Tracker, contracts Contracts, cfg TimerConfig) *TimerWidget {
	if cfg.Format == nil {
		cfg.Format = money.Plain
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	return &TimerWidget{
		contractID: contractID,
		tracker:    tracker,
		contracts:  contracts,
		format:     cfg.Format,
		notifier:   cfg.Notifier,
		clock:      clock.OrSystem(cfg.Clock),
		logger:     discardLogger(cfg.Logger),
	}
}

// Refresh re-reads the contract rate and the open session.
func (w *TimerWidget) Refresh(ctx context.Context) error {
	c, err := w.contracts.Get(ctx, w.contractID)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}

	sess, err := w.tracker.ActiveSession(ctx, w.contractID)
	switch {
	case errors.Is(err, tracking.ErrNoActiveSession):
		sess = nil
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	w.mu.Lock()
	w.rate = c.HourlyRate
	w.session = sess
	w.mu.Unlock()
	return nil
}

// Running reports whether the last refresh saw an open session.
func (w *TimerWidget) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session != nil
}

// Elapsed is the open session's running time, floored to seconds.
func (w *TimerWidget) Elapsed() time.Duration {
	w.mu.Lock()
	sess := w.session
	w.mu.Unlock()
	if sess == nil {
		return 0
	}
	return timeentry.Elapsed(sess.StartTime, w.clock.Now())
}

// Display is Elapsed as HH:MM:SS.
func (w *TimerWidget) Display() string {
	return FormatClock(w.Elapsed())
}

// LiveEarnings is the formatted amount the open session would earn if it
// stopped now.
func (w *TimerWidget) LiveEarnings() string {
	w.mu.Lock()
	sess, rate := w.session, w.rate
	w.mu.Unlock()
	if sess == nil {
		return w.format(0)
	}
	_, earnings := timeentry.Price(sess.StartTime, w.clock.Now(), rate)
	return w.format(earnings)
}

// Snapshot captures the current display state.
func (w *TimerWidget) Snapshot() TimerSnapshot {
	w.mu.Lock()
	sess := w.session
	w.mu.Unlock()
	snap := TimerSnapshot{
		Running:  sess != nil,
		Display:  w.Display(),
		Earnings: w.LiveEarnings(),
	}
	if sess != nil {
		snap.Notes = sess.Notes
	}
	return snap
}

// Start opens a session.
func (w *TimerWidget) Start(ctx context.Context) error {
	_, err := w.tracker.Start(ctx, w.contractID)
	if err != nil {
		w.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Could not start tracking", Message: err.Error()})
	} else {
		w.notifier.Notify(ctx, notify.Notice{Level: notify.LevelSuccess, Title: "Tracking started"})
	}
	w.refreshAfter(ctx)
	return err
}

// Pause settles the open session and marks the entry as a pause.
func (w *TimerWidget) Pause(ctx context.Context, notes string) (*tracking.StopResult, error) {
	res, err := w.tracker.Pause(ctx, w.contractID, notes)
	w.report(ctx, "Tracking paused", "Could not pause tracking", res, err)
	w.refreshAfter(ctx)
	return res, err
}

// Stop settles the open session. The cached session id goes along so a
// retried click returns the first result instead of failing.
func (w *TimerWidget) Stop(ctx context.Context, notes string) (*tracking.StopResult, error) {
	req := tracking.StopRequest{ContractID: w.contractID, Notes: notes}
	w.mu.Lock()
	if w.session != nil {
		req.SessionID = w.session.ID
	}
	w.mu.Unlock()

	res, err := w.tracker.Stop(ctx, req)
	w.report(ctx, "Time logged", "Could not stop tracking", res, err)
	w.refreshAfter(ctx)
	return res, err
}

// Run drives the display tick and the reconciliation poll until ctx ends.
// onTick receives a snapshot every tick; the poll picks up sessions started
// or force-stopped elsewhere.
func (w *TimerWidget) Run(ctx context.Context, tick, poll time.Duration, onTick func(TimerSnapshot)) {
	if tick <= 0 {
		tick = time.Second
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	tickTicker := time.NewTicker(tick)
	defer tickTicker.Stop()
	pollTicker := time.NewTicker(poll)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickTicker.C:
			if onTick != nil {
				onTick(w.Snapshot())
			}
		case <-pollTicker.C:
			if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("timer refresh failed", "contract_id", w.contractID, "error", err)
			}
		}
	}
}

func (w *TimerWidget) report(ctx context.Context, okTitle, failTitle string, res *tracking.StopResult, err error) {
	if err != nil {
		w.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: failTitle, Message: err.Error()})
		return
	}
	w.notifier.Notify(ctx, notify.Notice{
		Level:   notify.LevelSuccess,
		Title:   okTitle,
		Message: fmt.Sprintf("%s for %s", FormatClock(time.Duration(res.Entry.DurationMinutes*float64(time.Minute))), w.format(res.Entry.Earnings)),
	})
}

func (w *TimerWidget) refreshAfter(ctx context.Context) {
	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn("timer refresh failed", "contract_id", w.contractID, "error", err)
	}
}
