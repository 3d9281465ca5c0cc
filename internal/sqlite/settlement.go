package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/repository"
)

// SettlementRepository stores payment events
type SettlementRepository struct {
	db *DB
}

// NewSettlementRepository creates a new SettlementRepository
func NewSettlementRepository(db *DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create inserts a settlement. A reused idempotency key is rejected with
// repository.ErrAlreadyExists.
func (r *SettlementRepository) Create(ctx context.Context, s *payment.Settlement) error {
	entryIDs, err := json.Marshal(s.EntryIDs)
	if err != nil {
		return fmt.Errorf("failed to encode entry ids: %w", err)
	}

	_, err = r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO settlements (id, contract_id, amount, entry_ids, idempotency_key, paid_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.ContractID, s.Amount, string(entryIDs), s.IdempotencyKey, s.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// GetByKey retrieves the settlement recorded under an idempotency key
func (r *SettlementRepository) GetByKey(ctx context.Context, key string) (*payment.Settlement, error) {
	row := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT id, contract_id, amount, entry_ids, idempotency_key, paid_at
		FROM settlements
		WHERE idempotency_key = ?
	`, key)

	s, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// ListByContract returns a contract's settlements, oldest first
func (r *SettlementRepository) ListByContract(ctx context.Context, contractID string) ([]payment.Settlement, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `
		SELECT id, contract_id, amount, entry_ids, idempotency_key, paid_at
		FROM settlements
		WHERE contract_id = ?
		ORDER BY paid_at ASC
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []payment.Settlement{}
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlements: %w", err)
	}
	return settlements, nil
}

func scanSettlement(row rowScanner) (*payment.Settlement, error) {
	var s payment.Settlement
	var entryIDs string
	var key sql.NullString
	if err := row.Scan(&s.ID, &s.ContractID, &s.Amount, &entryIDs, &key, &s.PaidAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(entryIDs), &s.EntryIDs); err != nil {
		return nil, fmt.Errorf("failed to decode entry ids: %w", err)
	}
	if key.Valid {
		s.IdempotencyKey = &key.String
	}
	return &s, nil
}
