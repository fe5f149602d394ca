package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// AdminRepository answers the "is this user an administrator" lookup that
// gates every admin session view.
type AdminRepository interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type adminRepo struct {
	db sessionDB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)
	`, userID)
	if err != nil {
		return false, err
	}
	return exists, nil
}
