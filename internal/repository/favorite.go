package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pol60/bastshin-sessions/internal/model"
)

type FavoriteRepository interface {
	FindByOwner(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error)
	Create(ctx context.Context, params model.CreateFavoriteParams) (*model.Favorite, error)
	Delete(ctx context.Context, owner model.SessionOwner, productID string) (bool, error)
	// ReassignOwner moves all guest rows to the user. Products the user
	// already favorited are dropped from the guest side first so the
	// per-user unique key cannot fire mid-migration.
	ReassignOwner(ctx context.Context, guestID, userID string) (int64, error)
	WithTx(tx *sqlx.Tx) FavoriteRepository
}

type favoriteRepo struct {
	db sessionDB
}

func NewFavoriteRepository(db *sqlx.DB) FavoriteRepository {
	return &favoriteRepo{db: db}
}

func (r *favoriteRepo) WithTx(tx *sqlx.Tx) FavoriteRepository {
	return &favoriteRepo{db: tx}
}

func (r *favoriteRepo) FindByOwner(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error) {
	favorites := []model.Favorite{}
	query := `SELECT * FROM favorites WHERE guest_id = $1 ORDER BY created_at DESC`
	if owner.IsUser() {
		query = `SELECT * FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`
	}
	if err := r.db.SelectContext(ctx, &favorites, query, owner.ID); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (r *favoriteRepo) Create(ctx context.Context, params model.CreateFavoriteParams) (*model.Favorite, error) {
	userID, guestID := params.Owner.Columns()
	column := ownerColumn(params.Owner)

	var favorite model.Favorite
	err := r.db.GetContext(ctx, &favorite, `
		INSERT INTO favorites (user_id, guest_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (`+column+`, product_id) WHERE `+column+` IS NOT NULL DO UPDATE SET
			product_id = EXCLUDED.product_id
		RETURNING *
	`, userID, guestID, params.ProductID)
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

func (r *favoriteRepo) Delete(ctx context.Context, owner model.SessionOwner, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE `+ownerColumn(owner)+` = $1 AND product_id = $2`,
		owner.ID, productID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *favoriteRepo) ReassignOwner(ctx context.Context, guestID, userID string) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites g
		WHERE g.guest_id = $1
		AND EXISTS (
			SELECT 1 FROM favorites u
			WHERE u.user_id = $2 AND u.product_id = g.product_id
		)
	`, guestID, userID)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE favorites SET
			user_id = $2,
			guest_id = NULL
		WHERE guest_id = $1
	`, guestID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
