package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// ContractRepository checks that an exported contract exists.
type ContractRepository interface {
	Get(ctx context.Context, id string) (*contract.Contract, error)
}

// EntryRepository lists the entries to export.
type EntryRepository interface {
	ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error)
}

// Service exports contract entries.
type Service struct {
	contracts ContractRepository
	entries   EntryRepository
	logger    *slog.Logger
}

// NewService creates a new report service.
func NewService(contracts ContractRepository, entries EntryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{contracts: contracts, entries: entries, logger: logger}
}

// ExportContract writes the contract's entries, most recent first, as CSV.
// It returns the number of rows written.
func (s *Service) ExportContract(ctx context.Context, contractID string, w io.Writer) (int, error) {
	if strings.TrimSpace(contractID) == "" {
		return 0, contract.ErrInvalidInput
	}
	if _, err := s.contracts.Get(ctx, contractID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, contract.ErrContractNotFound
		}
		return 0, fmt.Errorf("loading contract: %w", err)
	}

	entries, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}
	timeentry.SortByStartDesc(entries)

	if err := WriteCSV(w, entries); err != nil {
		return 0, fmt.Errorf("writing export: %w", err)
	}
	s.logger.Debug("entries exported", "contract_id", contractID, "rows", len(entries))
	return len(entries), nil
}
