package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// ActiveSessionRepository stores open tracking sessions, one per contract
type ActiveSessionRepository struct {
	db *DB
}

// NewActiveSessionRepository creates a new ActiveSessionRepository
func NewActiveSessionRepository(db *DB) *ActiveSessionRepository {
	return &ActiveSessionRepository{db: db}
}

// CreateIfAbsent inserts a session unless the contract already has one.
// The contract_id primary key makes the check and the insert one step.
func (r *ActiveSessionRepository) CreateIfAbsent(ctx context.Context, sess *timeentry.ActiveSession) error {
	query := `
		INSERT INTO active_sessions (contract_id, id, freelancer_id, start_time, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		sess.ContractID,
		sess.ID,
		sess.FreelancerID,
		sess.StartTime,
		sess.Notes,
		sess.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves the open session of a contract
func (r *ActiveSessionRepository) Get(ctx context.Context, contractID string) (*timeentry.ActiveSession, error) {
	query := `
		SELECT id, contract_id, freelancer_id, start_time, notes, updated_at
		FROM active_sessions
		WHERE contract_id = ?
	`

	sess, err := scanSession(r.db.conn(ctx).QueryRowContext(ctx, query, contractID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// UpdateNotes replaces the notes of the open session
func (r *ActiveSessionRepository) UpdateNotes(ctx context.Context, contractID, notes string, at time.Time) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE active_sessions SET notes = ?, updated_at = ? WHERE contract_id = ?`,
		notes, at, contractID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session notes: %w", err)
	}
	return expectRow(result)
}

// Delete removes the contract's session if it is still sessionID
func (r *ActiveSessionRepository) Delete(ctx context.Context, contractID, sessionID string) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`DELETE FROM active_sessions WHERE contract_id = ? AND id = ?`,
		contractID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectRow(result)
}

// List returns every open session, oldest first
func (r *ActiveSessionRepository) List(ctx context.Context) ([]timeentry.ActiveSession, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `
		SELECT id, contract_id, freelancer_id, start_time, notes, updated_at
		FROM active_sessions
		ORDER BY start_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []timeentry.ActiveSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (*timeentry.ActiveSession, error) {
	var sess timeentry.ActiveSession
	if err := row.Scan(
		&sess.ID,
		&sess.ContractID,
		&sess.FreelancerID,
		&sess.StartTime,
		&sess.Notes,
		&sess.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sess, nil
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
