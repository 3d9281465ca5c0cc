package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/repository"
)

// ContractRepository stores contracts and their running totals
type ContractRepository struct {
	db *DB
}

// NewContractRepository creates a new ContractRepository
func NewContractRepository(db *DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id, title, client_id, client_name, freelancer_id, freelancer_name,
	type, hourly_rate, payment_cycle, status, total_hours_logged, total_paid,
	start_date, created_at, updated_at`

// Create inserts a new contract
func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	query := `INSERT INTO contracts (` + contractColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.ClientID,
		c.ClientName,
		c.FreelancerID,
		c.FreelancerName,
		c.Type,
		c.HourlyRate,
		c.PaymentCycle,
		c.Status,
		c.TotalHoursLogged,
		c.TotalPaid,
		c.StartDate,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// Get retrieves a contract by ID
func (r *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`

	c, err := scanContract(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

// List returns contracts matching the filter, newest first
func (r *ContractRepository) List(ctx context.Context, filter contract.ListFilter) ([]contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`

	var conditions []string
	var args []any
	if filter.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.FreelancerID != "" {
		conditions = append(conditions, "freelancer_id = ?")
		args = append(args, filter.FreelancerID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []contract.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}
	return contracts, nil
}

// UpdateStatus moves a contract from one status to another. It returns
// repository.ErrConflict when the stored status is no longer from.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id string, from, to contract.Status, at time.Time) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE contracts SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, at, id, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract status: %w", err)
	}
	return r.checkUpdated(ctx, result, id)
}

// AddHours adds to the contract's logged hours
func (r *ContractRepository) AddHours(ctx context.Context, id string, hours float64, at time.Time) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE contracts SET total_hours_logged = total_hours_logged + ?, updated_at = ? WHERE id = ?`,
		hours, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to add hours: %w", err)
	}
	return r.checkUpdated(ctx, result, id)
}

// AddPaid adds to the contract's paid total
func (r *ContractRepository) AddPaid(ctx context.Context, id string, amount float64, at time.Time) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE contracts SET total_paid = total_paid + ?, updated_at = ? WHERE id = ?`,
		amount, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to add paid amount: %w", err)
	}
	return r.checkUpdated(ctx, result, id)
}

func (r *ContractRepository) checkUpdated(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return repository.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.ClientID,
		&c.ClientName,
		&c.FreelancerID,
		&c.FreelancerName,
		&c.Type,
		&c.HourlyRate,
		&c.PaymentCycle,
		&c.Status,
		&c.TotalHoursLogged,
		&c.TotalPaid,
		&c.StartDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
