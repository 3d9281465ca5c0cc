package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

// TimeEntryRepository stores completed work sessions
type TimeEntryRepository struct {
	db *DB
}

// NewTimeEntryRepository creates a new TimeEntryRepository
func NewTimeEntryRepository(db *DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

const entryColumns = `
	e.id, e.contract_id, e.freelancer_id, e.start_time, e.end_time,
	e.duration_minutes, e.hourly_rate, e.earnings, e.description,
	e.activity_score, e.screenshots, e.status, e.created_at,
	e.approved_at, e.paid_at, e.settlement_id`

// Create inserts a new time entry
func (r *TimeEntryRepository) Create(ctx context.Context, entry *timeentry.TimeEntry) error {
	screenshots := entry.Screenshots
	if screenshots == nil {
		screenshots = []string{}
	}
	encoded, err := json.Marshal(screenshots)
	if err != nil {
		return fmt.Errorf("failed to encode screenshots: %w", err)
	}

	query := `
		INSERT INTO time_entries (
			id, contract_id, freelancer_id, start_time, end_time,
			duration_minutes, hourly_rate, earnings, description,
			activity_score, screenshots, status, created_at,
			approved_at, paid_at, settlement_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.ContractID,
		entry.FreelancerID,
		entry.StartTime,
		entry.EndTime,
		entry.DurationMinutes,
		entry.HourlyRate,
		entry.Earnings,
		entry.Description,
		entry.ActivityScore,
		string(encoded),
		entry.Status,
		entry.CreatedAt,
		entry.ApprovedAt,
		entry.PaidAt,
		entry.SettlementID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create time entry: %w", err)
	}
	return nil
}

// Get retrieves a time entry by ID
func (r *TimeEntryRepository) Get(ctx context.Context, id string) (*timeentry.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.id = ?`

	entry, err := scanEntry(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// ListByContract returns a contract's entries, most recent first
func (r *TimeEntryRepository) ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.contract_id = ? ORDER BY e.start_time DESC`
	return r.query(ctx, query, contractID)
}

// Search finds entries whose description matches every term of query.
// An empty contractID searches all contracts.
func (r *TimeEntryRepository) Search(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error) {
	match := ftsQuery(query)
	if match == "" {
		return []timeentry.TimeEntry{}, nil
	}

	sqlQuery := `
		SELECT ` + entryColumns + `
		FROM time_entries_fts
		JOIN time_entries e ON e.rowid = time_entries_fts.rowid
		WHERE time_entries_fts MATCH ?`
	args := []any{match}
	if contractID != "" {
		sqlQuery += " AND e.contract_id = ?"
		args = append(args, contractID)
	}
	sqlQuery += " ORDER BY rank, e.start_time DESC"
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, sqlQuery, args...)
}

// Approve moves a pending entry to approved
func (r *TimeEntryRepository) Approve(ctx context.Context, id string, at time.Time) error {
	from, fromArgs := statusIn(timeentry.StatusApproved)
	args := append([]any{timeentry.StatusApproved, at, id}, fromArgs...)
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE time_entries SET status = ?, approved_at = ? WHERE id = ? AND status IN (`+from+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to approve time entry: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

// MarkPaid moves the outstanding entries among ids to paid
func (r *TimeEntryRepository) MarkPaid(ctx context.Context, ids []string, settlementID string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := []any{timeentry.StatusPaid, at, settlementID}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	from, fromArgs := statusIn(timeentry.StatusPaid)
	args = append(args, fromArgs...)

	query := fmt.Sprintf(`
		UPDATE time_entries
		SET status = ?, paid_at = ?, settlement_id = ?
		WHERE id IN (%s) AND status IN (%s)
	`, strings.Join(placeholders, ","), from)

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark entries paid: %w", err)
	}
	return nil
}

// statusIn renders the placeholders and arguments for the statuses that
// may advance to next.
func statusIn(next timeentry.Status) (string, []any) {
	from := timeentry.From(next)
	placeholders := make([]string, len(from))
	args := make([]any, len(from))
	for i, s := range from {
		placeholders[i] = "?"
		args[i] = s
	}
	return strings.Join(placeholders, ","), args
}

func (r *TimeEntryRepository) query(ctx context.Context, query string, args ...any) ([]timeentry.TimeEntry, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	entries := []timeentry.TimeEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entries: %w", err)
	}
	return entries, nil
}

func scanEntry(row rowScanner) (*timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry
	var screenshots string
	var approvedAt, paidAt sql.NullTime
	var settlementID sql.NullString
	err := row.Scan(
		&e.ID,
		&e.ContractID,
		&e.FreelancerID,
		&e.StartTime,
		&e.EndTime,
		&e.DurationMinutes,
		&e.HourlyRate,
		&e.Earnings,
		&e.Description,
		&e.ActivityScore,
		&screenshots,
		&e.Status,
		&e.CreatedAt,
		&approvedAt,
		&paidAt,
		&settlementID,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(screenshots), &e.Screenshots); err != nil {
		e.Screenshots = []string{}
	}
	if approvedAt.Valid {
		e.ApprovedAt = &approvedAt.Time
	}
	if paidAt.Valid {
		e.PaidAt = &paidAt.Time
	}
	if settlementID.Valid {
		e.SettlementID = &settlementID.String
	}
	return &e, nil
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms so
// user input never reaches the FTS grammar.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}
