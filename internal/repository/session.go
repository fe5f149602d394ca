package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/pol60/bastshin-sessions/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindByOwner(ctx context.Context, owner model.SessionOwner) (*model.Session, error)
	// Upsert inserts or refreshes the one current row for the owner. The
	// conflict key is user_id or guest_id depending on the owner kind.
	Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error)
	// Touch is the heartbeat write: is_online true, last_activity advanced.
	// last_activity never moves backwards even when writes race.
	Touch(ctx context.Context, owner model.SessionOwner, at time.Time) error
	MarkOffline(ctx context.Context, owner model.SessionOwner) error
	// ReplaceOwner rewrites an existing row to a new owner in place,
	// restarting the presence window. Used by login upgrade and logout
	// downgrade.
	ReplaceOwner(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error)
	List(ctx context.Context, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error)
	Stats(ctx context.Context) (*model.SessionStats, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByOwner(ctx context.Context, owner model.SessionOwner) (bool, error)
	DeleteInactive(ctx context.Context) (int64, error)
	// SweepOffline flips rows online=false whose last activity predates the
	// cutoff. The is_online predicate makes each decay a single write.
	SweepOffline(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session,
		fmt.Sprintf(`SELECT * FROM sessions WHERE %s = $1`, ownerColumn(owner)), owner.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
	userID, guestID := params.Owner.Columns()
	if userID == nil && guestID == nil {
		return nil, fmt.Errorf("upsert session: owner is empty")
	}

	column := ownerColumn(params.Owner)
	var session model.Session
	err := r.db.GetContext(ctx, &session, fmt.Sprintf(`
		INSERT INTO sessions (user_id, guest_id, is_online, device, ip_address)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (%s) WHERE %s IS NOT NULL DO UPDATE SET
			is_online = TRUE,
			last_activity = GREATEST(sessions.last_activity, NOW()),
			device = COALESCE(EXCLUDED.device, sessions.device),
			ip_address = COALESCE(EXCLUDED.ip_address, sessions.ip_address),
			updated_at = NOW()
		RETURNING *
	`, column, column), userID, guestID, params.Device, params.IPAddress)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Touch(ctx context.Context, owner model.SessionOwner, at time.Time) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE sessions SET
			is_online = TRUE,
			last_activity = GREATEST(last_activity, $2),
			updated_at = NOW()
		WHERE %s = $1
	`, ownerColumn(owner)), owner.ID, at)
	return err
}

func (r *sessionRepo) MarkOffline(ctx context.Context, owner model.SessionOwner) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE sessions SET
			is_online = FALSE,
			updated_at = NOW()
		WHERE %s = $1
	`, ownerColumn(owner)), owner.ID)
	return err
}

func (r *sessionRepo) ReplaceOwner(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error) {
	userID, guestID := owner.Columns()
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			user_id = $2,
			guest_id = $3,
			is_online = TRUE,
			session_start = NOW(),
			last_activity = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, userID, guestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) List(ctx context.Context, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error) {
	if !sort.Valid() {
		sort = model.SessionSortLastActivity
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	query, args, err := sq.Select("*").
		From("sessions").
		OrderBy(fmt.Sprintf("%s %s", sort, dir), "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	sessions := []model.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Stats(ctx context.Context) (*model.SessionStats, error) {
	var stats model.SessionStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_online) AS active,
			COUNT(*) FILTER (WHERE guest_id IS NOT NULL) AS guest,
			COUNT(*) FILTER (WHERE user_id IS NOT NULL) AS registered
		FROM sessions
	`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *sessionRepo) DeleteByOwner(ctx context.Context, owner model.SessionOwner) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM sessions WHERE %s = $1`, ownerColumn(owner)), owner.ID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *sessionRepo) DeleteInactive(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE is_online = FALSE`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) SweepOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			is_online = FALSE,
			updated_at = NOW()
		WHERE is_online = TRUE AND last_activity < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE is_online = FALSE AND last_activity < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ownerColumn picks the conflict column for an owner. The return value is
// interpolated into SQL, so it stays closed over the two known column names.
func ownerColumn(owner model.SessionOwner) string {
	if owner.IsUser() {
		return "user_id"
	}
	return "guest_id"
}
