package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourly/internal/app"
	"github.com/rpggio/hourly/internal/blobstore"
	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/stretchr/testify/require"
)

var (
	admin      = contract.Actor{ID: "admin-1", Role: contract.RoleAdmin}
	client     = contract.Actor{ID: "client-1", Role: contract.RoleClient}
	freelancer = contract.Actor{ID: "free-1", Role: contract.RoleFreelancer}
	outsider   = contract.Actor{ID: "free-2", Role: contract.RoleFreelancer}
)

func newHandler(t *testing.T) (*Handler, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	a := app.New(app.BlobStores(blobstore.NewMemoryStore(), nil), nil,
		app.WithClock(clk), app.WithActivitySource(tracking.FixedActivity(70)))
	return NewHandler(servicesOf(a)), clk
}

func servicesOf(a *app.App) Services {
	return Services{
		Contracts: a.Contracts,
		Tracking:  a.Tracking,
		Payments:  a.Payments,
		Reports:   a.Reports,
		Activity:  a.Activity,
	}
}

func call(t *testing.T, h *Handler, actor contract.Actor, method string, params any) (any, error) {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return h.Handle(context.Background(), actor, method, raw)
}

func mustCall(t *testing.T, h *Handler, actor contract.Actor, method string, params any) any {
	t.Helper()
	result, err := call(t, h, actor, method, params)
	require.NoError(t, err, method)
	return result
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
}

func createContract(t *testing.T, h *Handler) string {
	t.Helper()
	result := mustCall(t, h, client, "create_contract", CreateContractParams{
		Title:        "Landing page",
		FreelancerID: freelancer.ID,
		HourlyRate:   50,
	})
	c := result.(*contract.Contract)
	require.Equal(t, client.ID, c.ClientID)
	return c.ID
}

func TestHandleTrackingFlow(t *testing.T) {
	h, clk := newHandler(t)
	id := createContract(t, h)

	started := mustCall(t, h, freelancer, "start_tracking", ContractIDParams{ContractID: id}).(SessionResponse)
	require.Equal(t, "00:00:00", started.Display)

	_, err := call(t, h, freelancer, "start_tracking", ContractIDParams{ContractID: id})
	requireCode(t, err, "SESSION_ALREADY_ACTIVE")

	mustCall(t, h, freelancer, "update_session_notes", UpdateSessionNotesParams{ContractID: id, Notes: "hero section"})
	clk.Advance(30*time.Minute + 5*time.Second)

	active := mustCall(t, h, client, "get_active_session", ContractIDParams{ContractID: id}).(SessionResponse)
	require.Equal(t, "00:30:05", active.Display)
	require.Equal(t, int64(1805), active.ElapsedSeconds)
	require.Equal(t, "hero section", active.Notes)

	stopped := mustCall(t, h, freelancer, "stop_tracking", StopTrackingParams{ContractID: id, SessionID: started.ID}).(*tracking.StopResult)
	require.Equal(t, "hero section", stopped.Entry.Description)

	retried := mustCall(t, h, freelancer, "stop_tracking", StopTrackingParams{ContractID: id, SessionID: started.ID}).(*tracking.StopResult)
	require.True(t, retried.Replayed)
	require.Equal(t, stopped.Entry.ID, retried.Entry.ID)

	_, err = call(t, h, freelancer, "stop_tracking", StopTrackingParams{ContractID: id})
	requireCode(t, err, "NO_ACTIVE_SESSION")

	entries := mustCall(t, h, client, "list_time_entries", ContractIDParams{ContractID: id}).([]timeentry.TimeEntry)
	require.Len(t, entries, 1)

	found := mustCall(t, h, client, "search_time_entries", SearchTimeEntriesParams{ContractID: id, Query: "hero"}).([]timeentry.TimeEntry)
	require.Len(t, found, 1)
}

func TestHandlePaymentFlow(t *testing.T) {
	h, clk := newHandler(t)
	id := createContract(t, h)

	mustCall(t, h, freelancer, "start_tracking", ContractIDParams{ContractID: id})
	clk.Advance(90 * time.Minute)
	stopped := mustCall(t, h, freelancer, "stop_tracking", StopTrackingParams{ContractID: id}).(*tracking.StopResult)

	_, err := call(t, h, freelancer, "approve_time_entry", ApproveTimeEntryParams{ContractID: id, EntryID: stopped.Entry.ID})
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, client, "approve_time_entry", ApproveTimeEntryParams{ContractID: id, EntryID: "nope"})
	requireCode(t, err, "ENTRY_NOT_FOUND")

	approved := mustCall(t, h, client, "approve_time_entry", ApproveTimeEntryParams{ContractID: id, EntryID: stopped.Entry.ID}).(*timeentry.TimeEntry)
	require.Equal(t, timeentry.StatusApproved, approved.Status)

	pending := mustCall(t, h, freelancer, "get_pending_earnings", ContractIDParams{ContractID: id}).(PendingEarningsResponse)
	require.InDelta(t, 75, pending.PendingEarnings, 1e-9)

	paid := mustCall(t, h, client, "pay_contract_due", PayContractDueParams{ContractID: id, IdempotencyKey: "k1"}).(*payment.SettlementResult)
	require.InDelta(t, 75, paid.Amount, 1e-9)

	again := mustCall(t, h, client, "pay_contract_due", PayContractDueParams{ContractID: id, IdempotencyKey: "k1"}).(*payment.SettlementResult)
	require.True(t, again.Replayed)

	nothing := mustCall(t, h, client, "pay_contract_due", PayContractDueParams{ContractID: id}).(*payment.SettlementResult)
	require.Zero(t, nothing.Amount)

	settlements := mustCall(t, h, admin, "list_settlements", ContractIDParams{ContractID: id}).([]payment.Settlement)
	require.Len(t, settlements, 1)

	export := mustCall(t, h, client, "export_time_entries", ContractIDParams{ContractID: id}).(ExportResponse)
	require.Equal(t, 1, export.Rows)
	require.True(t, strings.HasPrefix(export.CSV, "Date,Description,Duration(min),Earnings,Status"))

	activity := mustCall(t, h, client, "get_recent_activity", GetRecentActivityParams{ContractID: id}).([]ActivityEntryResponse)
	require.NotEmpty(t, activity)
}

func TestHandleAuthorization(t *testing.T) {
	h, _ := newHandler(t)
	id := createContract(t, h)

	_, err := call(t, h, outsider, "get_contract", ContractIDParams{ContractID: id})
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, client, "start_tracking", ContractIDParams{ContractID: id})
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, freelancer, "force_stop_tracking", ForceStopParams{ContractID: id})
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, client, "list_active_sessions", nil)
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, freelancer, "create_contract", CreateContractParams{FreelancerID: "x", HourlyRate: 1})
	requireCode(t, err, "FORBIDDEN")

	_, err = call(t, h, contract.Actor{ID: "x", Role: "guest"}, "list_contracts", nil)
	requireCode(t, err, "INVALID_ROLE")

	_, err = call(t, h, client, "get_recent_activity", GetRecentActivityParams{})
	requireCode(t, err, "INVALID_INPUT")

	_, err = call(t, h, admin, "get_contract", ContractIDParams{ContractID: "missing"})
	requireCode(t, err, "CONTRACT_NOT_FOUND")

	listed := mustCall(t, h, outsider, "list_contracts", nil).([]contract.Summary)
	require.Empty(t, listed)
}

func TestHandleStatusAndAdmin(t *testing.T) {
	h, clk := newHandler(t)
	id := createContract(t, h)

	mustCall(t, h, freelancer, "start_tracking", ContractIDParams{ContractID: id})
	clk.Advance(time.Minute)

	sessions := mustCall(t, h, admin, "list_active_sessions", nil).([]SessionResponse)
	require.Len(t, sessions, 1)

	forced := mustCall(t, h, admin, "force_stop_tracking", ForceStopParams{ContractID: id, Reason: "forgotten"}).(*tracking.StopResult)
	require.Contains(t, forced.Entry.Description, "forgotten")

	mustCall(t, h, client, "set_contract_status", SetContractStatusParams{ContractID: id, Status: contract.StatusTerminated})

	events := mustCall(t, h, admin, "get_recent_activity", GetRecentActivityParams{ContractID: id}).([]ActivityEntryResponse)
	var changedBy string
	for _, e := range events {
		if e.Type == "contract_status_changed" {
			changedBy = e.ActorID
		}
	}
	require.Equal(t, client.ID, changedBy)

	_, err := call(t, h, freelancer, "start_tracking", ContractIDParams{ContractID: id})
	requireCode(t, err, "CONTRACT_NOT_ACTIVE")

	_, err = call(t, h, client, "set_contract_status", SetContractStatusParams{ContractID: id, Status: contract.StatusActive})
	requireCode(t, err, "ILLEGAL_STATUS_TRANSITION")

	_, err = call(t, h, admin, "no_such_tool", nil)
	requireCode(t, err, "UNKNOWN_TOOL")
}

func TestHandleInvalidParams(t *testing.T) {
	h, _ := newHandler(t)
	_, err := h.Handle(context.Background(), admin, "get_contract", json.RawMessage(`{"contract_id": 7}`))
	requireCode(t, err, "INVALID_INPUT")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))
	require.Equal(t, "WRITE_FAILED", MapError(fmt.Errorf("saving: %w", repository.ErrWriteFailed)).Code)
	require.Equal(t, "IDEMPOTENCY_KEY_REUSED", MapError(payment.ErrIdempotencyKeyReused).Code)
	require.Equal(t, "SESSION_CHANGED", MapError(fmt.Errorf("stopping: %w", tracking.ErrSessionChanged)).Code)

	wrapped := fmt.Errorf("outer: %w", &APIError{Code: "X"})
	require.Equal(t, "X", MapError(wrapped).Code)
}

func TestCatalogMatchesHandler(t *testing.T) {
	h, _ := newHandler(t)
	names := map[string]bool{}
	for _, def := range buildToolCatalog() {
		require.False(t, names[def.Name], "duplicate tool %s", def.Name)
		names[def.Name] = true
		require.Equal(t, "object", def.InputSchema["type"])

		_, err := call(t, h, admin, def.Name, map[string]any{})
		if err != nil {
			require.NotContains(t, err.Error(), "UNKNOWN_TOOL", def.Name)
		}
	}
	require.Len(t, names, 20)
}

func TestServerToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	a := app.New(app.BlobStores(blobstore.NewMemoryStore(), nil), nil, app.WithClock(clk))

	server := NewServer(Config{
		Services:      servicesOf(a),
		DefaultActor:  client,
		TransportMode: "stdio",
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	mcpClient := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := mcpClient.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, len(buildToolCatalog()))

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_contract",
		Arguments: map[string]any{"freelancer_id": "free-1", "hourly_rate": 40},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_contract",
		Arguments: map[string]any{"contract_id": "missing"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	text := res.Content[0].(*sdkmcp.TextContent).Text
	require.Contains(t, text, "CONTRACT_NOT_FOUND")
}
