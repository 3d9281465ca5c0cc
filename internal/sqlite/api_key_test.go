package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)

	actor := contract.Actor{ID: "client-1", Role: contract.RoleClient}
	require.NoError(t, repo.Add(ctx, "secret-token", actor, "dashboard"))
	require.ErrorIs(t, repo.Add(ctx, "secret-token", actor, ""), repository.ErrAlreadyExists)
	require.ErrorIs(t, repo.Add(ctx, "other", contract.Actor{ID: "x", Role: "root"}, ""), contract.ErrInvalidRole)

	got, err := repo.Resolve(ctx, "secret-token")
	require.NoError(t, err)
	require.Equal(t, actor, got)

	_, err = repo.Resolve(ctx, "wrong")
	require.ErrorIs(t, err, repository.ErrNotFound)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT key_hash FROM api_keys`).Scan(&stored))
	require.Equal(t, HashToken("secret-token"), stored)
	require.NotContains(t, stored, "secret")
}
