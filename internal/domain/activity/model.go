package activity

import "time"

// ActivityType represents the type of audit event
type ActivityType string

const (
	TypeContractCreated       ActivityType = "contract_created"
	TypeContractStatusChanged ActivityType = "contract_status_changed"
	TypeTrackingStarted       ActivityType = "tracking_started"
	TypeTrackingStopped       ActivityType = "tracking_stopped"
	TypeTrackingForceStopped  ActivityType = "tracking_force_stopped"
	TypeEntryApproved         ActivityType = "entry_approved"
	TypeContractSettled       ActivityType = "contract_settled"
)

// ActivityEntry represents an event in the contract audit log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ContractID   string       `json:"contract_id"`
	ActorID      string       `json:"actor_id,omitempty"`
	EntryID      *string      `json:"entry_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
