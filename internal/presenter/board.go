package presenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/money"
	"github.com/rpggio/hourly/internal/notify"
)

// ConfirmFunc asks the user to approve paying amount. formatted is amount
// run through the board's formatter.
type ConfirmFunc func(amount float64, formatted string) bool

// BoardConfig carries the board's collaborators.
type BoardConfig struct {
	Format   money.Formatter
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// ContractBoard is the two-pane contract list: the actor's contracts on one
// side and the selected contract's entries on the other.
type ContractBoard struct {
	actor     contract.Actor
	contracts Contracts
	tracker   Tracker
	payments  Payments
	exporter  Exporter
	format    money.Formatter
	notifier  notify.Notifier
	logger    *slog.Logger

	mu       sync.Mutex
	items    []contract.Summary
	selected string
	entries  []timeentry.TimeEntry
}

// NewContractBoard returns a board scoped to actor.
func NewContractBoard(actor contract.Actor, contracts Contracts, tracker Tracker, payments Payments, exporter Exporter, cfg BoardConfig) *ContractBoard {
	if cfg.Format == nil {
		cfg.Format = money.Plain
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	return &ContractBoard{
		actor:     actor,
		contracts: contracts,
		tracker:   tracker,
		payments:  payments,
		exporter:  exporter,
		format:    cfg.Format,
		notifier:  cfg.Notifier,
		logger:    discardLogger(cfg.Logger),
	}
}

// Load refreshes the contract list and, if one is selected, its entries. A
// selection that disappeared from the list is cleared.
func (b *ContractBoard) Load(ctx context.Context) error {
	items, err := b.contracts.List(ctx, b.actor)
	if err != nil {
		return fmt.Errorf("list contracts: %w", err)
	}

	b.mu.Lock()
	b.items = items
	selected := b.selected
	if selected != "" && indexOf(items, selected) < 0 {
		b.selected, b.entries = "", nil
		selected = ""
	}
	b.mu.Unlock()

	if selected == "" {
		return nil
	}
	return b.loadEntries(ctx, selected)
}

// Items returns the loaded contracts.
func (b *ContractBoard) Items() []contract.Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]contract.Summary(nil), b.items...)
}

// Select makes id the detail pane's contract.
func (b *ContractBoard) Select(ctx context.Context, id string) error {
	b.mu.Lock()
	known := indexOf(b.items, id) >= 0
	b.mu.Unlock()
	if !known {
		return contract.ErrContractNotFound
	}
	if err := b.loadEntries(ctx, id); err != nil {
		return err
	}
	b.mu.Lock()
	b.selected = id
	b.mu.Unlock()
	return nil
}

// Selected returns the selected contract and its entries, newest first. The
// contract is nil when nothing is selected.
func (b *ContractBoard) Selected() (*contract.Summary, []timeentry.TimeEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexOf(b.items, b.selected)
	if i < 0 {
		return nil, nil
	}
	s := b.items[i]
	return &s, append([]timeentry.TimeEntry(nil), b.entries...)
}

// Approve approves one entry of the selected contract.
func (b *ContractBoard) Approve(ctx context.Context, entryID string) error {
	_, err := b.payments.Approve(ctx, entryID)
	if err != nil {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Could not approve entry", Message: err.Error()})
		return err
	}
	b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelSuccess, Title: "Entry approved"})
	return b.Load(ctx)
}

// PayDue settles everything outstanding on the selected contract. When
// nothing is due it says so and never asks for confirmation. A declined
// confirmation returns a nil result and no error.
func (b *ContractBoard) PayDue(ctx context.Context, confirm ConfirmFunc) (*payment.SettlementResult, error) {
	id, err := b.selectedID()
	if err != nil {
		return nil, err
	}

	due, err := b.payments.PendingEarnings(ctx, id)
	if err != nil {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Could not load earnings", Message: err.Error()})
		return nil, err
	}
	if due <= 0 {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, Title: "Nothing due", Message: "All entries on this contract are paid."})
		return nil, nil
	}
	if confirm != nil && !confirm(due, b.format(due)) {
		return nil, nil
	}

	res, err := b.payments.PayDue(ctx, payment.PayRequest{ContractID: id})
	if err != nil {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Payment failed", Message: err.Error()})
		return nil, err
	}
	b.notifier.Notify(ctx, notify.Notice{
		Level:   notify.LevelSuccess,
		Title:   "Payment sent",
		Message: fmt.Sprintf("Paid %s for %d entries", b.format(res.Amount), res.EntriesPaid),
	})
	return res, b.Load(ctx)
}

// SetStatus moves the selected contract to status.
func (b *ContractBoard) SetStatus(ctx context.Context, status contract.Status) error {
	id, err := b.selectedID()
	if err != nil {
		return err
	}
	if _, err := b.contracts.SetStatus(ctx, b.actor, id, status); err != nil {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Could not change status", Message: err.Error()})
		return err
	}
	b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelSuccess, Title: "Contract " + string(status)})
	return b.Load(ctx)
}

// Export writes the selected contract's entries as CSV.
func (b *ContractBoard) Export(ctx context.Context, w io.Writer) (int, error) {
	id, err := b.selectedID()
	if err != nil {
		return 0, err
	}
	n, err := b.exporter.ExportContract(ctx, id, w)
	if err != nil {
		b.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Export failed", Message: err.Error()})
		return n, err
	}
	return n, nil
}

func (b *ContractBoard) loadEntries(ctx context.Context, id string) error {
	entries, err := b.tracker.ListEntries(ctx, id)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	b.mu.Lock()
	b.entries = entries
	b.mu.Unlock()
	return nil
}

func (b *ContractBoard) selectedID() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == "" {
		return "", ErrNoSelection
	}
	return b.selected, nil
}

func indexOf(items []contract.Summary, id string) int {
	if id == "" {
		return -1
	}
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
