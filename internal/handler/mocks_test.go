package handler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pol60/bastshin-sessions/internal/database"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
)

type stubSessionRepo struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.Session, error)
	findByOwnerFunc    func(ctx context.Context, owner model.SessionOwner) (*model.Session, error)
	upsertFunc         func(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error)
	touchFunc          func(ctx context.Context, owner model.SessionOwner, at time.Time) error
	markOfflineFunc    func(ctx context.Context, owner model.SessionOwner) error
	replaceOwnerFunc   func(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error)
	listFunc           func(ctx context.Context, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error)
	statsFunc          func(ctx context.Context) (*model.SessionStats, error)
	deleteFunc         func(ctx context.Context, id string) (bool, error)
	deleteInactiveFunc func(ctx context.Context) (int64, error)
}

func (s *stubSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if s.findByIDFunc != nil {
		return s.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (s *stubSessionRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) (*model.Session, error) {
	if s.findByOwnerFunc != nil {
		return s.findByOwnerFunc(ctx, owner)
	}
	return nil, nil
}

func (s *stubSessionRepo) Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, params)
	}
	return nil, nil
}

func (s *stubSessionRepo) Touch(ctx context.Context, owner model.SessionOwner, at time.Time) error {
	if s.touchFunc != nil {
		return s.touchFunc(ctx, owner, at)
	}
	return nil
}

func (s *stubSessionRepo) MarkOffline(ctx context.Context, owner model.SessionOwner) error {
	if s.markOfflineFunc != nil {
		return s.markOfflineFunc(ctx, owner)
	}
	return nil
}

func (s *stubSessionRepo) ReplaceOwner(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error) {
	if s.replaceOwnerFunc != nil {
		return s.replaceOwnerFunc(ctx, id, owner)
	}
	return nil, nil
}

func (s *stubSessionRepo) List(ctx context.Context, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, sort, desc, limit, offset)
	}
	return []model.Session{}, nil
}

func (s *stubSessionRepo) Stats(ctx context.Context) (*model.SessionStats, error) {
	if s.statsFunc != nil {
		return s.statsFunc(ctx)
	}
	return &model.SessionStats{}, nil
}

func (s *stubSessionRepo) Delete(ctx context.Context, id string) (bool, error) {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, id)
	}
	return false, nil
}

func (s *stubSessionRepo) DeleteByOwner(ctx context.Context, owner model.SessionOwner) (bool, error) {
	return false, nil
}

func (s *stubSessionRepo) DeleteInactive(ctx context.Context) (int64, error) {
	if s.deleteInactiveFunc != nil {
		return s.deleteInactiveFunc(ctx)
	}
	return 0, nil
}

func (s *stubSessionRepo) SweepOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubSessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository { return s }

type stubFavoriteRepo struct {
	findByOwnerFunc func(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error)
	createFunc      func(ctx context.Context, params model.CreateFavoriteParams) (*model.Favorite, error)
	deleteFunc      func(ctx context.Context, owner model.SessionOwner, productID string) (bool, error)
}

func (s *stubFavoriteRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error) {
	if s.findByOwnerFunc != nil {
		return s.findByOwnerFunc(ctx, owner)
	}
	return []model.Favorite{}, nil
}

func (s *stubFavoriteRepo) Create(ctx context.Context, params model.CreateFavoriteParams) (*model.Favorite, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, params)
	}
	return &model.Favorite{ID: "fav-1", ProductID: params.ProductID}, nil
}

func (s *stubFavoriteRepo) Delete(ctx context.Context, owner model.SessionOwner, productID string) (bool, error) {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, owner, productID)
	}
	return true, nil
}

func (s *stubFavoriteRepo) ReassignOwner(ctx context.Context, guestID, userID string) (int64, error) {
	return 0, nil
}

func (s *stubFavoriteRepo) WithTx(tx *sqlx.Tx) repository.FavoriteRepository { return s }

type stubMigrationLogRepo struct{}

func (s *stubMigrationLogRepo) Record(ctx context.Context, guestID, userID, sessionID string) error {
	return nil
}

func (s *stubMigrationLogRepo) FindByGuestID(ctx context.Context, guestID string) (*model.MigrationLog, error) {
	return nil, nil
}

func (s *stubMigrationLogRepo) WithTx(tx *sqlx.Tx) repository.MigrationLogRepository { return s }

type stubAdminRepo struct {
	isAdminFunc func(ctx context.Context, userID string) (bool, error)
}

func (s *stubAdminRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFunc != nil {
		return s.isAdminFunc(ctx, userID)
	}
	return false, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type openGate struct{}

func (openGate) Allow(ctx context.Context, key string, interval time.Duration) bool { return true }
