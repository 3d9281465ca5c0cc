package contract

import "time"

// Status represents the lifecycle status of a contract
type Status string

const (
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusTerminated Status = "terminated"
)

// PaymentCycle is informational; nothing schedules payments from it.
type PaymentCycle string

const (
	CycleWeekly   PaymentCycle = "weekly"
	CycleBiweekly PaymentCycle = "biweekly"
	CycleMonthly  PaymentCycle = "monthly"
)

// Type is the billing model of a contract.
type Type string

const TypeHourly Type = "hourly"

// Contract is an hourly-work agreement between one client and one freelancer
type Contract struct {
	ID               string       `json:"id"`
	Title            string       `json:"title,omitempty"`
	ClientID         string       `json:"client_id"`
	ClientName       string       `json:"client_name,omitempty"`
	FreelancerID     string       `json:"freelancer_id"`
	FreelancerName   string       `json:"freelancer_name,omitempty"`
	Type             Type         `json:"type"`
	HourlyRate       float64      `json:"hourly_rate"`
	PaymentCycle     PaymentCycle `json:"payment_cycle"`
	Status           Status       `json:"status"`
	TotalHoursLogged float64      `json:"total_hours_logged"`
	TotalPaid        float64      `json:"total_paid"`
	StartDate        time.Time    `json:"start_date"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Summary is a contract enriched with read-time aggregates for list views
type Summary struct {
	Contract
	EarningsPending    float64    `json:"earnings_pending"`
	HasActiveSession   bool       `json:"has_active_session"`
	ActiveSessionStart *time.Time `json:"active_session_start,omitempty"`
}

// ListFilter restricts a contract listing to one party. Empty fields match all.
type ListFilter struct {
	ClientID     string
	FreelancerID string
}
