package timeentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatus_Advances(t *testing.T) {
	require.True(t, StatusPending.Advances(StatusApproved))
	require.True(t, StatusPending.Advances(StatusPaid))
	require.True(t, StatusApproved.Advances(StatusPaid))
	require.False(t, StatusPaid.Advances(StatusApproved))
	require.False(t, StatusApproved.Advances(StatusApproved))
	require.False(t, Status("bogus").Advances(StatusPaid))
}

func TestFrom(t *testing.T) {
	require.Equal(t, []Status{StatusPending}, From(StatusApproved))
	require.Equal(t, []Status{StatusPending, StatusApproved}, From(StatusPaid))
	require.Empty(t, From(StatusPending))
	require.True(t, StatusApproved.Outstanding())
	require.False(t, StatusPaid.Outstanding())
}

func TestPendingEarnings(t *testing.T) {
	entries := []TimeEntry{
		{Earnings: 10, Status: StatusPending},
		{Earnings: 2.5, Status: StatusApproved},
		{Earnings: 100, Status: StatusPaid},
	}
	require.InDelta(t, 12.5, PendingEarnings(entries), 1e-9)
	require.Zero(t, PendingEarnings(nil))
}

func TestPrice_FractionalMinutes(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(30*time.Minute + 45*time.Second)

	minutes, earnings := Price(start, end, 50)
	require.InDelta(t, 30.75, minutes, 1e-9)
	require.InDelta(t, 30.75/60*50, earnings, 1e-6)
}

func TestPrice_ManyShortSessionsDoNotUndercount(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	var total float64
	for i := 0; i < 120; i++ {
		_, earnings := Price(start, start.Add(59*time.Second), 60)
		total += earnings
	}
	require.InDelta(t, 120*59.0/60, total, 1e-6)
}

func TestElapsed_FloorsSeconds(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	require.Equal(t, 61*time.Second, Elapsed(start, start.Add(61*time.Second+900*time.Millisecond)))
	require.Zero(t, Elapsed(start, start.Add(-time.Second)))
}

func TestSortByStartDesc(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	entries := []TimeEntry{
		{ID: "old", StartTime: base},
		{ID: "new", StartTime: base.Add(2 * time.Hour)},
		{ID: "mid", StartTime: base.Add(time.Hour)},
	}
	SortByStartDesc(entries)
	require.Equal(t, "new", entries[0].ID)
	require.Equal(t, "mid", entries[1].ID)
	require.Equal(t, "old", entries[2].ID)
}
