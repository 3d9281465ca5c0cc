// Package presenter holds view models for the hourly screens. Nothing here
// renders; callers bind the exported state to whatever UI they run.
package presenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
)

// Tracker is the slice of tracking.Service the views drive.
type Tracker interface {
	Start(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
	Stop(ctx context.Context, req tracking.StopRequest) (*tracking.StopResult, error)
	Pause(ctx context.Context, contractID, notes string) (*tracking.StopResult, error)
	ActiveSession(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
	ListEntries(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
}

// Contracts is the slice of contract.Service the views drive.
type Contracts interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
	List(ctx context.Context, actor contract.Actor) ([]contract.Summary, error)
	SetStatus(ctx context.Context, actor contract.Actor, id string, to contract.Status) (*contract.Contract, error)
}

// Payments is the slice of payment.Service the board drives.
type Payments interface {
	Approve(ctx context.Context, entryID string) (*timeentry.TimeEntry, error)
	PendingEarnings(ctx context.Context, contractID string) (float64, error)
	PayDue(ctx context.Context, req payment.PayRequest) (*payment.SettlementResult, error)
}

// Exporter writes a contract's entries as CSV.
type Exporter interface {
	ExportContract(ctx context.Context, contractID string, w io.Writer) (int, error)
}

// FormatClock renders d as HH:MM:SS, flooring to whole seconds. Hours grow
// past two digits rather than wrapping.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
