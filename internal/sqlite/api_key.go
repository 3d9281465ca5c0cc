package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/repository"
)

// APIKeyRepository maps bearer tokens to actors. Only token hashes are stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers token for actor
func (r *APIKeyRepository) Add(ctx context.Context, token string, actor contract.Actor, description string) error {
	if _, err := contract.ParseRole(string(actor.Role)); err != nil {
		return err
	}
	_, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, actor_id, role, created_at, description) VALUES (?, ?, ?, ?, ?)`,
		HashToken(token), actor.ID, actor.Role, time.Now(), nullString(description),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// Resolve returns the actor a token belongs to and stamps its last use
func (r *APIKeyRepository) Resolve(ctx context.Context, token string) (contract.Actor, error) {
	hash := HashToken(token)
	var actor contract.Actor
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT actor_id, role FROM api_keys WHERE key_hash = ?`, hash,
	).Scan(&actor.ID, &actor.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return contract.Actor{}, repository.ErrNotFound
	}
	if err != nil {
		return contract.Actor{}, fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), hash,
	); err != nil {
		return contract.Actor{}, fmt.Errorf("failed to stamp api key: %w", err)
	}
	return actor, nil
}

// HashToken returns the hex sha256 of a bearer token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
