package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/presenter"
)

// ContractService defines contract operations needed by MCP.
type ContractService interface {
	Create(ctx context.Context, req contract.CreateRequest) (*contract.Contract, error)
	Get(ctx context.Context, id string) (*contract.Contract, error)
	GetSummary(ctx context.Context, id string) (*contract.Summary, error)
	List(ctx context.Context, actor contract.Actor) ([]contract.Summary, error)
	SetStatus(ctx context.Context, actor contract.Actor, id string, to contract.Status) (*contract.Contract, error)
}

// TrackingService defines time tracking operations needed by MCP.
type TrackingService interface {
	Start(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
	UpdateNotes(ctx context.Context, contractID, notes string) error
	Stop(ctx context.Context, req tracking.StopRequest) (*tracking.StopResult, error)
	Pause(ctx context.Context, contractID, notes string) (*tracking.StopResult, error)
	ForceStop(ctx context.Context, contractID, actorID, reason string) (*tracking.StopResult, error)
	ActiveSession(ctx context.Context, contractID string) (*timeentry.ActiveSession, error)
	ListActiveSessions(ctx context.Context) ([]timeentry.ActiveSession, error)
	ListEntries(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
	SearchEntries(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error)
	Elapsed(sess timeentry.ActiveSession) time.Duration
}

// PaymentService defines approval and settlement operations needed by MCP.
type PaymentService interface {
	Approve(ctx context.Context, entryID string) (*timeentry.TimeEntry, error)
	PendingEarnings(ctx context.Context, contractID string) (float64, error)
	PayDue(ctx context.Context, req payment.PayRequest) (*payment.SettlementResult, error)
	PayEntries(ctx context.Context, req payment.PayEntriesRequest) (*payment.SettlementResult, error)
	ListSettlements(ctx context.Context, contractID string) ([]payment.Settlement, error)
}

// ReportService defines export operations needed by MCP.
type ReportService interface {
	ExportContract(ctx context.Context, contractID string, w io.Writer) (int, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Contracts ContractService
	Tracking  TrackingService
	Payments  PaymentService
	Reports   ReportService
	Activity  ActivityService
}

var errInvalidParams = errors.New("invalid params")

// Handler dispatches MCP commands.
type Handler struct {
	svc Services
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Handle dispatches one tool call on behalf of actor. Errors the domain
// knows about come back as *APIError.
func (h *Handler) Handle(ctx context.Context, actor contract.Actor, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, actor, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, actor contract.Actor, method string, params json.RawMessage) (any, error) {
	if _, err := contract.ParseRole(string(actor.Role)); err != nil {
		return nil, err
	}

	switch method {
	case "list_contracts":
		return h.svc.Contracts.List(ctx, actor)
	case "get_contract":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		return h.svc.Contracts.GetSummary(ctx, req.ContractID)
	case "create_contract":
		var req CreateContractParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		switch actor.Role {
		case contract.RoleClient:
			req.ClientID = actor.ID
		case contract.RoleAdmin:
		default:
			return nil, ErrForbidden
		}
		return h.svc.Contracts.Create(ctx, contract.CreateRequest{
			Title:          req.Title,
			ClientID:       req.ClientID,
			ClientName:     req.ClientName,
			FreelancerID:   req.FreelancerID,
			FreelancerName: req.FreelancerName,
			Type:           contract.TypeHourly,
			HourlyRate:     req.HourlyRate,
			PaymentCycle:   req.PaymentCycle,
			CreatedBy:      actor.ID,
		})
	case "set_contract_status":
		var req SetContractStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleClient); err != nil {
			return nil, err
		}
		return h.svc.Contracts.SetStatus(ctx, actor, req.ContractID, req.Status)

	case "start_tracking":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleFreelancer); err != nil {
			return nil, err
		}
		sess, err := h.svc.Tracking.Start(ctx, req.ContractID)
		if err != nil {
			return nil, err
		}
		return h.sessionResponse(*sess), nil
	case "update_session_notes":
		var req UpdateSessionNotesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleFreelancer); err != nil {
			return nil, err
		}
		if err := h.svc.Tracking.UpdateNotes(ctx, req.ContractID, req.Notes); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	case "stop_tracking":
		var req StopTrackingParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleFreelancer); err != nil {
			return nil, err
		}
		return h.svc.Tracking.Stop(ctx, tracking.StopRequest{
			ContractID: req.ContractID,
			Notes:      req.Notes,
			SessionID:  req.SessionID,
		})
	case "pause_tracking":
		var req UpdateSessionNotesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleFreelancer); err != nil {
			return nil, err
		}
		return h.svc.Tracking.Pause(ctx, req.ContractID, req.Notes)
	case "force_stop_tracking":
		var req ForceStopParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if actor.Role != contract.RoleAdmin {
			return nil, ErrForbidden
		}
		return h.svc.Tracking.ForceStop(ctx, req.ContractID, actor.ID, req.Reason)
	case "get_active_session":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		sess, err := h.svc.Tracking.ActiveSession(ctx, req.ContractID)
		if err != nil {
			return nil, err
		}
		return h.sessionResponse(*sess), nil
	case "list_active_sessions":
		if actor.Role != contract.RoleAdmin {
			return nil, ErrForbidden
		}
		sessions, err := h.svc.Tracking.ListActiveSessions(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]SessionResponse, 0, len(sessions))
		for _, sess := range sessions {
			resp = append(resp, h.sessionResponse(sess))
		}
		return resp, nil
	case "list_time_entries":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		return h.svc.Tracking.ListEntries(ctx, req.ContractID)
	case "search_time_entries":
		var req SearchTimeEntriesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		return h.svc.Tracking.SearchEntries(ctx, req.ContractID, req.Query, req.Limit)

	case "approve_time_entry":
		var req ApproveTimeEntryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleClient); err != nil {
			return nil, err
		}
		if err := h.requireEntry(ctx, req.ContractID, req.EntryID); err != nil {
			return nil, err
		}
		return h.svc.Payments.Approve(ctx, req.EntryID)
	case "get_pending_earnings":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		pending, err := h.svc.Payments.PendingEarnings(ctx, req.ContractID)
		if err != nil {
			return nil, err
		}
		return PendingEarningsResponse{ContractID: req.ContractID, PendingEarnings: pending}, nil
	case "pay_contract_due":
		var req PayContractDueParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleClient); err != nil {
			return nil, err
		}
		return h.svc.Payments.PayDue(ctx, payment.PayRequest{
			ContractID:     req.ContractID,
			IdempotencyKey: req.IdempotencyKey,
		})
	case "pay_time_entries":
		var req PayTimeEntriesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID, contract.RoleClient); err != nil {
			return nil, err
		}
		return h.svc.Payments.PayEntries(ctx, payment.PayEntriesRequest{
			ContractID:     req.ContractID,
			EntryIDs:       req.EntryIDs,
			IdempotencyKey: req.IdempotencyKey,
		})
	case "list_settlements":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		return h.svc.Payments.ListSettlements(ctx, req.ContractID)
	case "export_time_entries":
		var req ContractIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		rows, err := h.svc.Reports.ExportContract(ctx, req.ContractID, &buf)
		if err != nil {
			return nil, err
		}
		return ExportResponse{ContractID: req.ContractID, Rows: rows, CSV: buf.String()}, nil

	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ContractID == "" && actor.Role != contract.RoleAdmin {
			return nil, fmt.Errorf("%w: contract_id is required", errInvalidParams)
		}
		if req.ContractID != "" {
			if _, err := h.authorize(ctx, actor, req.ContractID); err != nil {
				return nil, err
			}
		}
		entries, err := h.svc.Activity.GetRecentActivity(ctx, activity.ListActivityOptions{
			ContractID: req.ContractID,
			Limit:      req.Limit,
		})
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp:  entry.CreatedAt,
				Type:       string(entry.ActivityType),
				ContractID: entry.ContractID,
				ActorID:    entry.ActorID,
				EntryID:    stringValue(entry.EntryID),
				Summary:    entry.Summary,
				Details:    entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, &APIError{Code: "UNKNOWN_TOOL", Message: "unknown method: " + method, RecoveryHint: "See tools/list"}
	}
}

// authorize loads the contract and checks the actor is a party to it. When
// roles are given, non-admin actors must also hold one of them.
func (h *Handler) authorize(ctx context.Context, actor contract.Actor, contractID string, roles ...contract.Role) (*contract.Contract, error) {
	if contractID == "" {
		return nil, fmt.Errorf("%w: contract_id is required", errInvalidParams)
	}
	c, err := h.svc.Contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if actor.Role == contract.RoleAdmin {
		return c, nil
	}
	if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
		return nil, ErrForbidden
	}
	if !actor.Sees(c) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (h *Handler) requireEntry(ctx context.Context, contractID, entryID string) error {
	entries, err := h.svc.Tracking.ListEntries(ctx, contractID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == entryID {
			return nil
		}
	}
	return payment.ErrEntryNotFound
}

func (h *Handler) sessionResponse(sess timeentry.ActiveSession) SessionResponse {
	elapsed := h.svc.Tracking.Elapsed(sess)
	return SessionResponse{
		ActiveSession:  sess,
		ElapsedSeconds: int64(elapsed / time.Second),
		Display:        presenter.FormatClock(elapsed),
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
