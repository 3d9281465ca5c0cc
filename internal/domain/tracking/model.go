package tracking

import "github.com/rpggio/hourly/internal/domain/timeentry"

// StopRequest describes a stop (or pause) of the open session.
type StopRequest struct {
	ContractID string
	Notes      string
	// SessionID, when set, makes a retried stop return the entry the first
	// attempt produced instead of failing with ErrNoActiveSession. A stop
	// naming a session other than the open one fails with ErrSessionChanged.
	SessionID string
}

// StopResult reports the entry a stop produced.
type StopResult struct {
	Entry      timeentry.TimeEntry `json:"entry"`
	HoursAdded float64             `json:"hours_added"`
	Paused     bool                `json:"paused"`
	Replayed   bool                `json:"replayed"`
}

const (
	pausedSuffix      = "(paused)"
	forceStoppedLabel = "force stopped by admin"
)
