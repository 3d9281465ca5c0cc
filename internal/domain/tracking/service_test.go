package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/repository"
	"github.com/rpggio/hourly/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	contracts  *mocks.ContractRepository
	entries    *mocks.EntryRepository
	sessions   *mocks.SessionRepository
	activities *mocks.ActivityRepository
	clock      *clock.Manual
	svc        *tracking.Service
}

func newFixture() *fixture {
	f := &fixture{
		contracts:  &mocks.ContractRepository{},
		entries:    &mocks.EntryRepository{},
		sessions:   &mocks.SessionRepository{},
		activities: &mocks.ActivityRepository{},
		clock:      clock.NewManual(epoch),
	}
	f.activities.On("Log", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = tracking.NewService(f.contracts, f.entries, f.sessions, f.activities, repository.Passthrough, nil,
		tracking.WithClock(f.clock),
		tracking.WithActivitySource(tracking.FixedActivity(92)),
	)
	return f
}

func activeContract() *contract.Contract {
	return &contract.Contract{ID: "c1", FreelancerID: "free-1", ClientID: "client-1", HourlyRate: 60, Status: contract.StatusActive}
}

func TestTrackingService_Start(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.sessions.On("CreateIfAbsent", ctx, mock.AnythingOfType("*timeentry.ActiveSession")).Return(nil)

	sess, err := f.svc.Start(ctx, "c1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "c1", sess.ContractID)
	require.Equal(t, "free-1", sess.FreelancerID)
	require.Equal(t, epoch, sess.StartTime)
	f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTrackingService_StartTwiceFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.sessions.On("CreateIfAbsent", ctx, mock.Anything).Return(repository.ErrAlreadyExists)

	_, err := f.svc.Start(ctx, "c1")
	require.ErrorIs(t, err, tracking.ErrSessionAlreadyActive)
}

func TestTrackingService_StartRequiresActiveContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	paused := activeContract()
	paused.Status = contract.StatusPaused
	f.contracts.On("Get", ctx, "c1").Return(paused, nil)
	f.contracts.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Start(ctx, "c1")
	require.ErrorIs(t, err, tracking.ErrContractNotActive)

	_, err = f.svc.Start(ctx, "missing")
	require.ErrorIs(t, err, contract.ErrContractNotFound)
	f.sessions.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestTrackingService_StopPricesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sess := &timeentry.ActiveSession{ID: "s1", ContractID: "c1", FreelancerID: "free-1", StartTime: epoch, Notes: "wip"}
	f.clock.Advance(90 * time.Minute)
	end := f.clock.Now()

	f.sessions.On("Get", ctx, "c1").Return(sess, nil)
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.entries.On("Create", ctx, mock.MatchedBy(func(e *timeentry.TimeEntry) bool {
		return e.ID == "s1" &&
			e.DurationMinutes == 90 &&
			e.Earnings == 90 &&
			e.HourlyRate == 60 &&
			e.Status == timeentry.StatusPending &&
			e.Description == "api work" &&
			e.ActivityScore == 92 &&
			e.EndTime.Equal(end)
	})).Return(nil)
	f.contracts.On("AddHours", ctx, "c1", 1.5, end).Return(nil)
	f.sessions.On("Delete", ctx, "c1", "s1").Return(nil)

	result, err := f.svc.Stop(ctx, tracking.StopRequest{ContractID: "c1", Notes: "api work"})
	require.NoError(t, err)
	require.Equal(t, 1.5, result.HoursAdded)
	require.False(t, result.Replayed)
	require.False(t, result.Paused)
	f.entries.AssertExpectations(t)
	f.contracts.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestTrackingService_StopFallsBackToSessionNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sess := &timeentry.ActiveSession{ID: "s1", ContractID: "c1", StartTime: epoch, Notes: "draft notes"}
	f.clock.Advance(time.Minute)

	f.sessions.On("Get", ctx, "c1").Return(sess, nil)
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.entries.On("Create", ctx, mock.MatchedBy(func(e *timeentry.TimeEntry) bool {
		return e.Description == "draft notes (paused)"
	})).Return(nil)
	f.contracts.On("AddHours", ctx, "c1", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("Delete", ctx, "c1", "s1").Return(nil)

	result, err := f.svc.Pause(ctx, "c1", "  ")
	require.NoError(t, err)
	require.True(t, result.Paused)
	f.entries.AssertExpectations(t)
}

func TestTrackingService_StopWithoutSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.sessions.On("Get", ctx, "c1").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Stop(ctx, tracking.StopRequest{ContractID: "c1"})
	require.ErrorIs(t, err, tracking.ErrNoActiveSession)
	f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTrackingService_StopReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	prior := &timeentry.TimeEntry{ID: "s1", ContractID: "c1", Earnings: 12}
	f.sessions.On("Get", ctx, "c1").Return(nil, repository.ErrNotFound)
	f.entries.On("Get", ctx, "s1").Return(prior, nil)

	result, err := f.svc.Stop(ctx, tracking.StopRequest{ContractID: "c1", SessionID: "s1"})
	require.NoError(t, err)
	require.True(t, result.Replayed)
	require.Equal(t, "s1", result.Entry.ID)
	f.contracts.AssertNotCalled(t, "AddHours", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackingService_StopNamingReplacedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	current := &timeentry.ActiveSession{ID: "s2", ContractID: "c1", StartTime: epoch}
	f.sessions.On("Get", ctx, "c1").Return(current, nil)

	_, err := f.svc.Stop(ctx, tracking.StopRequest{ContractID: "c1", SessionID: "s1"})
	require.ErrorIs(t, err, tracking.ErrSessionChanged)
	f.entries.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackingService_StopFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sess := &timeentry.ActiveSession{ID: "s1", ContractID: "c1", StartTime: epoch}
	f.clock.Advance(time.Hour)

	f.sessions.On("Get", ctx, "c1").Return(sess, nil)
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.entries.On("Create", ctx, mock.Anything).Return(repository.ErrWriteFailed)

	_, err := f.svc.Stop(ctx, tracking.StopRequest{ContractID: "c1"})
	require.ErrorIs(t, err, repository.ErrWriteFailed)
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackingService_ForceStopAnnotatesEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sess := &timeentry.ActiveSession{ID: "s1", ContractID: "c1", StartTime: epoch, Notes: "late night"}
	f.clock.Advance(30 * time.Minute)

	f.sessions.On("Get", ctx, "c1").Return(sess, nil)
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.entries.On("Create", ctx, mock.MatchedBy(func(e *timeentry.TimeEntry) bool {
		return e.Description == "late night [force stopped by admin: idle]" && e.Earnings == 30
	})).Return(nil)
	f.contracts.On("AddHours", ctx, "c1", 0.5, mock.Anything).Return(nil)
	f.sessions.On("Delete", ctx, "c1", "s1").Return(nil)

	result, err := f.svc.ForceStop(ctx, "c1", "admin-1", "idle")
	require.NoError(t, err)
	require.Equal(t, "s1", result.Entry.ID)
	f.entries.AssertExpectations(t)
}

func TestTrackingService_UpdateNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.sessions.On("UpdateNotes", ctx, "c1", "progress", epoch).Return(nil)
	f.sessions.On("UpdateNotes", ctx, "c2", "progress", epoch).Return(repository.ErrNotFound)

	require.NoError(t, f.svc.UpdateNotes(ctx, "c1", "progress"))
	require.ErrorIs(t, f.svc.UpdateNotes(ctx, "c2", "progress"), tracking.ErrNoActiveSession)
}

func TestTrackingService_ListEntriesMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.contracts.On("Get", ctx, "c1").Return(activeContract(), nil)
	f.entries.On("ListByContract", ctx, "c1").Return([]timeentry.TimeEntry{
		{ID: "old", StartTime: epoch},
		{ID: "new", StartTime: epoch.Add(2 * time.Hour)},
		{ID: "mid", StartTime: epoch.Add(time.Hour)},
	}, nil)

	entries, err := f.svc.ListEntries(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"new", "mid", "old"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestTrackingService_Elapsed(t *testing.T) {
	f := newFixture()
	f.clock.Advance(65*time.Second + 900*time.Millisecond)
	require.Equal(t, 65*time.Second, f.svc.Elapsed(timeentry.ActiveSession{StartTime: epoch}))
}
