package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entry1 := &activity.ActivityEntry{
		ContractID:   "c1",
		ActivityType: activity.TypeContractCreated,
		Summary:      "created contract",
		CreatedAt:    base,
	}
	entry2 := &activity.ActivityEntry{
		ContractID:   "c1",
		ActorID:      "free-1",
		ActivityType: activity.TypeTrackingStarted,
		Summary:      "tracking started",
		Details:      `{"session":"s1"}`,
		CreatedAt:    base.Add(time.Minute),
	}

	require.NoError(t, repo.Log(ctx, entry1))
	require.NoError(t, repo.Log(ctx, entry2))
	require.NotZero(t, entry1.ID)

	entries, err := repo.List(ctx, activity.ListActivityOptions{ContractID: "c1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, "free-1", entries[0].ActorID)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	entryID := "e1"
	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{
		ContractID:   "c1",
		EntryID:      &entryID,
		ActivityType: activity.TypeEntryApproved,
		Summary:      "approved",
	}))
	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{
		ContractID:   "c2",
		ActivityType: activity.TypeContractCreated,
		Summary:      "created",
	}))

	byEntry, err := repo.List(ctx, activity.ListActivityOptions{EntryID: &entryID})
	require.NoError(t, err)
	require.Len(t, byEntry, 1)
	require.Equal(t, "e1", *byEntry[0].EntryID)

	created := activity.TypeContractCreated
	byType, err := repo.List(ctx, activity.ListActivityOptions{ActivityType: &created})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, "c2", byType[0].ContractID)

	paged, err := repo.List(ctx, activity.ListActivityOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
}
