package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSettlementRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	repo := NewSettlementRepository(db)

	key := "pay-1"
	base := time.Date(2024, 3, 8, 17, 0, 0, 0, time.UTC)
	first := &payment.Settlement{ID: "s1", ContractID: "c1", Amount: 75, EntryIDs: []string{"e1", "e2"}, IdempotencyKey: &key, PaidAt: base}
	second := &payment.Settlement{ID: "s2", ContractID: "c1", Amount: 10, EntryIDs: []string{"e3"}, PaidAt: base.Add(time.Hour)}

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	reused := &payment.Settlement{ID: "s3", ContractID: "c1", Amount: 1, EntryIDs: []string{}, IdempotencyKey: &key, PaidAt: base}
	require.ErrorIs(t, repo.Create(ctx, reused), repository.ErrAlreadyExists)

	got, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)
	require.Equal(t, []string{"e1", "e2"}, got.EntryIDs)

	_, err = repo.GetByKey(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.ListByContract(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "s1", list[0].ID)
	require.Nil(t, list[1].IdempotencyKey)
}
