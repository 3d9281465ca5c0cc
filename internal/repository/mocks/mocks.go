package mocks

import (
	"context"
	"time"

	"github.com/rpggio/hourly/internal/domain/activity"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/stretchr/testify/mock"
)

// ContractRepository is a mock for the contract repositories.
type ContractRepository struct {
	mock.Mock
}

func (m *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contract.Contract); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContractRepository) List(ctx context.Context, filter contract.ListFilter) ([]contract.Contract, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]contract.Contract); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContractRepository) UpdateStatus(ctx context.Context, id string, from, to contract.Status, at time.Time) error {
	args := m.Called(ctx, id, from, to, at)
	return args.Error(0)
}

func (m *ContractRepository) AddHours(ctx context.Context, id string, hours float64, at time.Time) error {
	args := m.Called(ctx, id, hours, at)
	return args.Error(0)
}

func (m *ContractRepository) AddPaid(ctx context.Context, id string, amount float64, at time.Time) error {
	args := m.Called(ctx, id, amount, at)
	return args.Error(0)
}

// EntryRepository is a mock for the time entry repositories.
type EntryRepository struct {
	mock.Mock
}

func (m *EntryRepository) Create(ctx context.Context, entry *timeentry.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *EntryRepository) Get(ctx context.Context, id string) (*timeentry.TimeEntry, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*timeentry.TimeEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) ListByContract(ctx context.Context, contractID string) ([]timeentry.TimeEntry, error) {
	args := m.Called(ctx, contractID)
	if list, ok := args.Get(0).([]timeentry.TimeEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) Search(ctx context.Context, contractID, query string, limit int) ([]timeentry.TimeEntry, error) {
	args := m.Called(ctx, contractID, query, limit)
	if list, ok := args.Get(0).([]timeentry.TimeEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) Approve(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *EntryRepository) MarkPaid(ctx context.Context, ids []string, settlementID string, at time.Time) error {
	args := m.Called(ctx, ids, settlementID, at)
	return args.Error(0)
}

// SessionRepository is a mock for the active session repositories.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) CreateIfAbsent(ctx context.Context, sess *timeentry.ActiveSession) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, contractID string) (*timeentry.ActiveSession, error) {
	args := m.Called(ctx, contractID)
	if sess, ok := args.Get(0).(*timeentry.ActiveSession); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) UpdateNotes(ctx context.Context, contractID, notes string, at time.Time) error {
	args := m.Called(ctx, contractID, notes, at)
	return args.Error(0)
}

func (m *SessionRepository) Delete(ctx context.Context, contractID, sessionID string) error {
	args := m.Called(ctx, contractID, sessionID)
	return args.Error(0)
}

func (m *SessionRepository) List(ctx context.Context) ([]timeentry.ActiveSession, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]timeentry.ActiveSession); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SettlementRepository is a mock for payment.SettlementRepository.
type SettlementRepository struct {
	mock.Mock
}

func (m *SettlementRepository) Create(ctx context.Context, s *payment.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SettlementRepository) GetByKey(ctx context.Context, key string) (*payment.Settlement, error) {
	args := m.Called(ctx, key)
	if s, ok := args.Get(0).(*payment.Settlement); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SettlementRepository) ListByContract(ctx context.Context, contractID string) ([]payment.Settlement, error) {
	args := m.Called(ctx, contractID)
	if list, ok := args.Get(0).([]payment.Settlement); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
