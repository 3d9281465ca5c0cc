package timeentry

import (
	"sort"
	"time"
)

// Status is the settlement state of a time entry. It only moves forward.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
)

// Outstanding reports whether the entry still counts towards pending
// earnings, that is whether it can still be paid.
func (s Status) Outstanding() bool {
	return s.Advances(StatusPaid)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid:
		return true
	}
	return false
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved:
		return 1
	case StatusPaid:
		return 2
	}
	return -1
}

// Advances reports whether moving from s to next is a forward step.
func (s Status) Advances(next Status) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// From lists the statuses that may advance to next, in order. Storage
// layers use it for their conditional updates.
func From(next Status) []Status {
	var out []Status
	for _, s := range []Status{StatusPending, StatusApproved, StatusPaid} {
		if s.Advances(next) {
			out = append(out, s)
		}
	}
	return out
}

// TimeEntry is one completed work session against a contract. Only the
// status fields change after creation.
type TimeEntry struct {
	ID              string     `json:"id"`
	ContractID      string     `json:"contract_id"`
	FreelancerID    string     `json:"freelancer_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationMinutes float64    `json:"duration_minutes"`
	HourlyRate      float64    `json:"hourly_rate"`
	Earnings        float64    `json:"earnings"`
	Description     string     `json:"description"`
	ActivityScore   int        `json:"activity_score"`
	Screenshots     []string   `json:"screenshots,omitempty"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	SettlementID    *string    `json:"settlement_id,omitempty"`
}

// ActiveSession marks an in-progress, unsettled work session. A contract has
// at most one.
type ActiveSession struct {
	ID           string    `json:"id"`
	ContractID   string    `json:"contract_id"`
	FreelancerID string    `json:"freelancer_id"`
	StartTime    time.Time `json:"start_time"`
	Notes        string    `json:"notes"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PendingEarnings folds the earnings of outstanding entries. The result is
// never stored.
func PendingEarnings(entries []TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		if e.Status.Outstanding() {
			total += e.Earnings
		}
	}
	return total
}

// SortByStartDesc orders entries most recent first.
func SortByStartDesc(entries []TimeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime.After(entries[j].StartTime)
	})
}

// Price computes the duration and earnings of a session ending at end.
// Minutes stay fractional so many short sessions do not undercount.
func Price(start, end time.Time, hourlyRate float64) (durationMinutes, earnings float64) {
	if end.Before(start) {
		return 0, 0
	}
	durationMinutes = end.Sub(start).Minutes()
	earnings = durationMinutes / 60 * hourlyRate
	return durationMinutes, earnings
}

// Elapsed is the live display duration of a session, floored to whole seconds.
func Elapsed(start, now time.Time) time.Duration {
	if now.Before(start) {
		return 0
	}
	return now.Sub(start).Truncate(time.Second)
}
