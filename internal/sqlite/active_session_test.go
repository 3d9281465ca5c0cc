package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestActiveSessionRepository_CreateIfAbsent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	repo := NewActiveSessionRepository(db)

	now := time.Now()
	first := &timeentry.ActiveSession{ID: "s1", ContractID: "c1", FreelancerID: "free-1", StartTime: now, UpdatedAt: now}
	second := &timeentry.ActiveSession{ID: "s2", ContractID: "c1", FreelancerID: "free-1", StartTime: now, UpdatedAt: now}

	require.NoError(t, repo.CreateIfAbsent(ctx, first))
	require.ErrorIs(t, repo.CreateIfAbsent(ctx, second), repository.ErrAlreadyExists)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)

	orphan := &timeentry.ActiveSession{ID: "s3", ContractID: "missing", StartTime: now, UpdatedAt: now}
	require.ErrorIs(t, repo.CreateIfAbsent(ctx, orphan), repository.ErrNotFound)
}

func TestActiveSessionRepository_ConcurrentStarts(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	repo := NewActiveSessionRepository(db)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now()
			errs[i] = repo.CreateIfAbsent(ctx, &timeentry.ActiveSession{
				ID: uuid.NewString(), ContractID: "c1", StartTime: now, UpdatedAt: now,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, repository.ErrAlreadyExists)
	}
	require.Equal(t, 1, succeeded)
}

func TestActiveSessionRepository_NotesDeleteList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertContract(t, db, "c1", "client-1", "free-1")
	insertContract(t, db, "c2", "client-1", "free-2")
	repo := NewActiveSessionRepository(db)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateIfAbsent(ctx, &timeentry.ActiveSession{ID: "s1", ContractID: "c1", StartTime: base.Add(time.Hour), UpdatedAt: base}))
	require.NoError(t, repo.CreateIfAbsent(ctx, &timeentry.ActiveSession{ID: "s2", ContractID: "c2", StartTime: base, UpdatedAt: base}))

	require.NoError(t, repo.UpdateNotes(ctx, "c1", "halfway", base.Add(2*time.Hour)))
	require.ErrorIs(t, repo.UpdateNotes(ctx, "missing", "x", base), repository.ErrNotFound)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "halfway", got.Notes)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "s2", list[0].ID)

	require.ErrorIs(t, repo.Delete(ctx, "c1", "stale-id"), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "c1", "s1"))
	_, err = repo.Get(ctx, "c1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
