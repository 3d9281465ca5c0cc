package mcp

import (
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
)

type ContractIDParams struct {
	ContractID string `json:"contract_id"`
}

type CreateContractParams struct {
	Title          string                `json:"title,omitempty"`
	ClientID       string                `json:"client_id,omitempty"`
	ClientName     string                `json:"client_name,omitempty"`
	FreelancerID   string                `json:"freelancer_id"`
	FreelancerName string                `json:"freelancer_name,omitempty"`
	HourlyRate     float64               `json:"hourly_rate"`
	PaymentCycle   contract.PaymentCycle `json:"payment_cycle,omitempty"`
}

type SetContractStatusParams struct {
	ContractID string          `json:"contract_id"`
	Status     contract.Status `json:"status"`
}

type UpdateSessionNotesParams struct {
	ContractID string `json:"contract_id"`
	Notes      string `json:"notes"`
}

type StopTrackingParams struct {
	ContractID string `json:"contract_id"`
	Notes      string `json:"notes,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

type ForceStopParams struct {
	ContractID string `json:"contract_id"`
	Reason     string `json:"reason,omitempty"`
}

type SearchTimeEntriesParams struct {
	ContractID string `json:"contract_id"`
	Query      string `json:"query"`
	Limit      int    `json:"limit,omitempty"`
}

type ApproveTimeEntryParams struct {
	ContractID string `json:"contract_id"`
	EntryID    string `json:"entry_id"`
}

type PayContractDueParams struct {
	ContractID     string `json:"contract_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type PayTimeEntriesParams struct {
	ContractID     string   `json:"contract_id"`
	EntryIDs       []string `json:"entry_ids"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

type GetRecentActivityParams struct {
	ContractID string `json:"contract_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// SessionResponse is an open session with its live clock.
type SessionResponse struct {
	timeentry.ActiveSession
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Display        string `json:"display"`
}

type PendingEarningsResponse struct {
	ContractID      string  `json:"contract_id"`
	PendingEarnings float64 `json:"pending_earnings"`
}

type ExportResponse struct {
	ContractID string `json:"contract_id"`
	Rows       int    `json:"rows"`
	CSV        string `json:"csv"`
}

type ActivityEntryResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
	ContractID string    `json:"contract_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	EntryID    string    `json:"entry_id,omitempty"`
	Summary    string    `json:"summary"`
	Details    string    `json:"details,omitempty"`
}
