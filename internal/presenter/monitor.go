package presenter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
)

// DefaultPollInterval is how often views reconcile with the store.
const DefaultPollInterval = 10 * time.Second

// ErrNoSelection indicates a board action that needs a selected contract.
var ErrNoSelection = errors.New("no contract selected")

// SessionSource lists open sessions and closes them on an admin's behalf.
type SessionSource interface {
	ListActiveSessions(ctx context.Context) ([]timeentry.ActiveSession, error)
	ForceStop(ctx context.Context, contractID, actorID, reason string) (*tracking.StopResult, error)
}

// SessionMonitor is the admin view of every open session.
type SessionMonitor struct {
	sessions SessionSource
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionMonitor returns a monitor polling every interval, or every
// DefaultPollInterval when interval is not positive.
func NewSessionMonitor(sessions SessionSource, interval time.Duration, logger *slog.Logger) *SessionMonitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &SessionMonitor{sessions: sessions, interval: interval, logger: discardLogger(logger)}
}

// Run hands a snapshot to onSnapshot right away and then on every interval
// until ctx ends. Failed polls are logged and skipped.
func (m *SessionMonitor) Run(ctx context.Context, onSnapshot func([]timeentry.ActiveSession)) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		sessions, err := m.sessions.ListActiveSessions(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			m.logger.Warn("session poll failed", "error", err)
		case err == nil:
			onSnapshot(sessions)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ForceStop closes the session on contractID as adminID.
func (m *SessionMonitor) ForceStop(ctx context.Context, contractID, adminID, reason string) (*tracking.StopResult, error) {
	res, err := m.sessions.ForceStop(ctx, contractID, adminID, reason)
	if err != nil {
		return nil, err
	}
	m.logger.Info("session force stopped", "contract_id", contractID, "admin_id", adminID)
	return res, nil
}
