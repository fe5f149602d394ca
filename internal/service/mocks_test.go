package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/pol60/bastshin-sessions/internal/database"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
)

// Mock repositories

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) (*model.Session, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Touch(ctx context.Context, owner model.SessionOwner, at time.Time) error {
	args := m.Called(ctx, owner, at)
	return args.Error(0)
}

func (m *mockSessionRepo) MarkOffline(ctx context.Context, owner model.SessionOwner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *mockSessionRepo) ReplaceOwner(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error) {
	args := m.Called(ctx, id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) List(ctx context.Context, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error) {
	args := m.Called(ctx, sort, desc, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) Stats(ctx context.Context) (*model.SessionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionStats), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) DeleteByOwner(ctx context.Context, owner model.SessionOwner) (bool, error) {
	args := m.Called(ctx, owner)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) DeleteInactive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) SweepOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockFavoriteRepo struct {
	mock.Mock
}

func (m *mockFavoriteRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Favorite), args.Error(1)
}

func (m *mockFavoriteRepo) Create(ctx context.Context, params model.CreateFavoriteParams) (*model.Favorite, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Favorite), args.Error(1)
}

func (m *mockFavoriteRepo) Delete(ctx context.Context, owner model.SessionOwner, productID string) (bool, error) {
	args := m.Called(ctx, owner, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepo) ReassignOwner(ctx context.Context, guestID, userID string) (int64, error) {
	args := m.Called(ctx, guestID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFavoriteRepo) WithTx(tx *sqlx.Tx) repository.FavoriteRepository {
	return m
}

type mockMigrationLogRepo struct {
	mock.Mock
}

func (m *mockMigrationLogRepo) Record(ctx context.Context, guestID, userID, sessionID string) error {
	args := m.Called(ctx, guestID, userID, sessionID)
	return args.Error(0)
}

func (m *mockMigrationLogRepo) FindByGuestID(ctx context.Context, guestID string) (*model.MigrationLog, error) {
	args := m.Called(ctx, guestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MigrationLog), args.Error(1)
}

func (m *mockMigrationLogRepo) WithTx(tx *sqlx.Tx) repository.MigrationLogRepository {
	return m
}

type mockAdminRepo struct {
	mock.Mock
}

func (m *mockAdminRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// fakeTxRunner runs the transaction function directly; the mocks ignore the
// nil tx because WithTx returns the mock itself.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, eventType string, data any) error {
	args := m.Called(ctx, eventType, data)
	return args.Error(0)
}

// openGate never debounces; closedGate always does.
type openGate struct{}

func (openGate) Allow(ctx context.Context, key string, interval time.Duration) bool { return true }

type closedGate struct{}

func (closedGate) Allow(ctx context.Context, key string, interval time.Duration) bool { return false }
