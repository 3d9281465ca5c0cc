package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestContractRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	created := insertContract(t, db, "c1", "client-1", "free-1")

	repo := NewContractRepository(db)
	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, created.ClientID, got.ClientID)
	require.Equal(t, created.FreelancerID, got.FreelancerID)
	require.Equal(t, contract.StatusActive, got.Status)
	require.Equal(t, contract.CycleWeekly, got.PaymentCycle)
	require.Equal(t, 50.0, got.HourlyRate)
	require.True(t, created.StartDate.Equal(got.StartDate))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Create(ctx, created), repository.ErrAlreadyExists)
}

func TestContractRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	insertContract(t, db, "c2", "client-1", "free-2")
	insertContract(t, db, "c3", "client-2", "free-1")

	repo := NewContractRepository(db)

	all, err := repo.List(ctx, contract.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	byFreelancer, err := repo.List(ctx, contract.ListFilter{FreelancerID: "free-1"})
	require.NoError(t, err)
	require.Len(t, byFreelancer, 2)
	for _, c := range byFreelancer {
		require.Equal(t, "free-1", c.FreelancerID)
	}

	byClient, err := repo.List(ctx, contract.ListFilter{ClientID: "client-2"})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	require.Equal(t, "c3", byClient[0].ID)
}

func TestContractRepository_UpdateStatus(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	repo := NewContractRepository(db)

	require.NoError(t, repo.UpdateStatus(ctx, "c1", contract.StatusActive, contract.StatusPaused, time.Now()))
	require.ErrorIs(t, repo.UpdateStatus(ctx, "c1", contract.StatusActive, contract.StatusTerminated, time.Now()), repository.ErrConflict)
	require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", contract.StatusActive, contract.StatusPaused, time.Now()), repository.ErrNotFound)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, contract.StatusPaused, got.Status)
}

func TestContractRepository_Totals(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	repo := NewContractRepository(db)

	require.NoError(t, repo.AddHours(ctx, "c1", 0.5, time.Now()))
	require.NoError(t, repo.AddHours(ctx, "c1", 1.25, time.Now()))
	require.NoError(t, repo.AddPaid(ctx, "c1", 25, time.Now()))
	require.ErrorIs(t, repo.AddHours(ctx, "missing", 1, time.Now()), repository.ErrNotFound)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.InDelta(t, 1.75, got.TotalHoursLogged, 1e-9)
	require.Equal(t, 25.0, got.TotalPaid)
}
