package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `hourly tracks paid hours on freelance contracts: Contracts -> running Sessions -> Time Entries -> Settlements.

Core concepts:
- Contract: one client, one freelancer, an hourly rate and a status (active, paused, terminated). Terminated is final.
- Session: the running timer. At most one per contract. Only active contracts can start one.
- Time entry: a stopped session. Duration and earnings are fixed when it is logged. Status only moves forward: pending -> approved -> paid.
- Settlement: one payment covering outstanding entries. Pending earnings are always the sum over entries not yet paid.

Typical flow:
1) list_contracts to orient.
2) Freelancer: start_tracking, update_session_notes while working, stop_tracking (or pause_tracking) when done.
3) Client: list_time_entries, approve_time_entry, then pay_contract_due.

Retries:
- stop_tracking with the session_id from start_tracking returns the first result on retry.
- pay_contract_due and pay_time_entries accept idempotency_key; repeating it returns the original settlement.
- pay_contract_due with nothing due returns amount 0 and writes nothing.

Docs:
- hourly://docs/concepts
- hourly://docs/workflows/tracking
- hourly://docs/workflows/payments
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "hourly://docs/concepts",
		Name:        "docs_concepts",
		Title:       "hourly concepts",
		Description: "Glossary and the rules every tool upholds.",
		Content: `# hourly: concepts

## Glossary

- **Contract**: an hourly agreement between a client and a freelancer. Carries ` + "`hourly_rate`" + `, ` + "`total_hours_logged`" + ` and ` + "`total_paid`" + `.
- **Active session**: the running timer of a contract. Holds the start time and live notes.
- **Time entry**: a completed session. ` + "`duration_minutes`" + ` is fractional; ` + "`earnings = duration_minutes / 60 * hourly_rate`" + `.
- **Pending earnings**: sum of earnings over pending and approved entries. Computed on read, never stored.
- **Settlement**: a payment record listing the entries it paid.

## Rules

- One running session per contract. A second start fails with ` + "`SESSION_ALREADY_ACTIVE`" + `.
- Status changes never touch entries or a running session. Paused and terminated contracts reject new starts.
- Entry status never moves backwards. Approving an approved entry is a no-op.
- ` + "`total_hours_logged`" + ` grows on every stop. ` + "`total_paid`" + ` grows on every settlement.

## Roles

- **freelancer**: tracks time on own contracts.
- **client**: creates contracts, approves and pays entries, changes status.
- **admin**: sees everything, can force-stop sessions and list all running sessions.
`,
	},
	{
		URI:         "hourly://docs/workflows/tracking",
		Name:        "docs_tracking",
		Title:       "Tracking time",
		Description: "Starting, pausing and stopping the timer.",
		Content: `# Tracking time

1. ` + "`start_tracking`" + ` returns the session. Keep its ` + "`id`" + `.
2. ` + "`get_active_session`" + ` shows ` + "`display`" + ` (HH:MM:SS) and ` + "`elapsed_seconds`" + `.
3. ` + "`update_session_notes`" + ` replaces the notes; the final stop uses them when no notes are passed.
4. ` + "`stop_tracking`" + ` logs a pending entry. Pass ` + "`session_id`" + ` so a retry after a timeout returns the same entry.
5. ` + "`pause_tracking`" + ` is a stop whose entry is marked "(paused)". Start again to resume.

An admin may ` + "`force_stop_tracking`" + ` a forgotten timer. The time is still logged and the entry notes the reason.
`,
	},
	{
		URI:         "hourly://docs/workflows/payments",
		Name:        "docs_payments",
		Title:       "Approving and paying",
		Description: "Approvals, settlements and safe retries.",
		Content: `# Approving and paying

- ` + "`approve_time_entry`" + ` moves a pending entry to approved.
- ` + "`get_pending_earnings`" + ` tells you what is owed.
- ` + "`pay_contract_due`" + ` pays every pending and approved entry at once. Approval is optional.
- ` + "`pay_time_entries`" + ` pays a chosen subset; paid entries in the list are skipped.
- ` + "`list_settlements`" + ` shows past payments.

Always send an ` + "`idempotency_key`" + ` when a payment may be retried. Reusing a key on another contract fails with ` + "`IDEMPOTENCY_KEY_REUSED`" + `.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
