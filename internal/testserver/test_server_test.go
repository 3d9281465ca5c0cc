package testserver

import (
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/mcp"
	"github.com/stretchr/testify/require"
)

func TestFunctional_TrackApproveAndPay(t *testing.T) {
	ts := New(t)
	ts.AddAPIKey(t, "client-token", contract.Actor{ID: "client-1", Role: contract.RoleClient})
	ts.AddAPIKey(t, "free-token", contract.Actor{ID: "free-1", Role: contract.RoleFreelancer})
	ts.AddAPIKey(t, "admin-token", contract.Actor{ID: "ops", Role: contract.RoleAdmin})

	var c contract.Contract
	ts.Result(t, "client-token", "create_contract", mcp.CreateContractParams{
		Title:        "API integration",
		FreelancerID: "free-1",
		HourlyRate:   50,
	}, &c)
	require.Equal(t, "client-1", c.ClientID)

	var sess mcp.SessionResponse
	ts.Result(t, "free-token", "start_tracking", mcp.ContractIDParams{ContractID: c.ID}, &sess)
	require.Equal(t, "SESSION_ALREADY_ACTIVE", ts.ErrorCode(t, "free-token", "start_tracking", mcp.ContractIDParams{ContractID: c.ID}))

	ts.Clock.Advance(30 * time.Minute)

	var stopped tracking.StopResult
	ts.Result(t, "free-token", "stop_tracking", mcp.StopTrackingParams{ContractID: c.ID, Notes: "webhooks", SessionID: sess.ID}, &stopped)
	require.InDelta(t, 30, stopped.Entry.DurationMinutes, 1e-9)
	require.InDelta(t, 25, stopped.Entry.Earnings, 1e-9)
	require.Equal(t, timeentry.StatusPending, stopped.Entry.Status)

	var got contract.Summary
	ts.Result(t, "free-token", "get_contract", mcp.ContractIDParams{ContractID: c.ID}, &got)
	require.InDelta(t, 0.5, got.TotalHoursLogged, 1e-9)
	require.InDelta(t, 25, got.EarningsPending, 1e-9)

	ts.Result(t, "client-token", "approve_time_entry", mcp.ApproveTimeEntryParams{ContractID: c.ID, EntryID: stopped.Entry.ID}, nil)

	var paid payment.SettlementResult
	ts.Result(t, "client-token", "pay_contract_due", mcp.PayContractDueParams{ContractID: c.ID}, &paid)
	require.InDelta(t, 25, paid.Amount, 1e-9)

	var again payment.SettlementResult
	ts.Result(t, "client-token", "pay_contract_due", mcp.PayContractDueParams{ContractID: c.ID}, &again)
	require.Zero(t, again.Amount)

	var pending mcp.PendingEarningsResponse
	ts.Result(t, "free-token", "get_pending_earnings", mcp.ContractIDParams{ContractID: c.ID}, &pending)
	require.Zero(t, pending.PendingEarnings)

	var entries []timeentry.TimeEntry
	ts.Result(t, "admin-token", "list_time_entries", mcp.ContractIDParams{ContractID: c.ID}, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, timeentry.StatusPaid, entries[0].Status)
}

func TestFunctional_RoleScopedListing(t *testing.T) {
	ts := New(t)
	ts.AddAPIKey(t, "c1", contract.Actor{ID: "client-1", Role: contract.RoleClient})
	ts.AddAPIKey(t, "c2", contract.Actor{ID: "client-2", Role: contract.RoleClient})
	ts.AddAPIKey(t, "f1", contract.Actor{ID: "free-1", Role: contract.RoleFreelancer})

	ts.Result(t, "c1", "create_contract", mcp.CreateContractParams{FreelancerID: "free-1", HourlyRate: 10}, nil)
	ts.Result(t, "c2", "create_contract", mcp.CreateContractParams{FreelancerID: "free-9", HourlyRate: 10}, nil)

	var mine []contract.Summary
	ts.Result(t, "c1", "list_contracts", nil, &mine)
	require.Len(t, mine, 1)
	require.Equal(t, "client-1", mine[0].ClientID)

	var theirs []contract.Summary
	ts.Result(t, "f1", "list_contracts", nil, &theirs)
	require.Len(t, theirs, 1)
	require.Equal(t, "free-1", theirs[0].FreelancerID)

	require.Equal(t, "FORBIDDEN", ts.ErrorCode(t, "c2", "get_contract", mcp.ContractIDParams{ContractID: mine[0].ID}))
}

func TestFunctional_UnknownToken(t *testing.T) {
	ts := New(t)
	resp, err := ts.Server.Client().Post(ts.Server.URL+"/rpc", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 401, resp.StatusCode)
}
