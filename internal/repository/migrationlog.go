package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pol60/bastshin-sessions/internal/model"
)

type MigrationLogRepository interface {
	// Record claims the guest id for the user. A duplicate-key error means
	// the guest id was already claimed; callers inspect the existing row.
	Record(ctx context.Context, guestID, userID, sessionID string) error
	FindByGuestID(ctx context.Context, guestID string) (*model.MigrationLog, error)
	WithTx(tx *sqlx.Tx) MigrationLogRepository
}

type migrationLogRepo struct {
	db sessionDB
}

func NewMigrationLogRepository(db *sqlx.DB) MigrationLogRepository {
	return &migrationLogRepo{db: db}
}

func (r *migrationLogRepo) WithTx(tx *sqlx.Tx) MigrationLogRepository {
	return &migrationLogRepo{db: tx}
}

func (r *migrationLogRepo) Record(ctx context.Context, guestID, userID, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO migration_log (guest_id, user_id, session_id)
		VALUES ($1, $2, $3)
	`, guestID, userID, sessionID)
	return err
}

func (r *migrationLogRepo) FindByGuestID(ctx context.Context, guestID string) (*model.MigrationLog, error) {
	var entry model.MigrationLog
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM migration_log WHERE guest_id = $1
	`, guestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
