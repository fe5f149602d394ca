package model

import (
	"time"
)

// Favorite is guest-owned storefront data that migration reassigns on login.
type Favorite struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"userId,omitempty"`
	GuestID   *string   `db:"guest_id" json:"guestId,omitempty"`
	ProductID string    `db:"product_id" json:"productId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateFavoriteParams struct {
	Owner     SessionOwner
	ProductID string
}
