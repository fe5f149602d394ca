package service

import (
	"context"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
)

// FavoriteService manages per-owner product favorites. Guests and users get
// the same surface; migration moves rows between them.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo}
}

func (s *FavoriteService) List(ctx context.Context, owner model.SessionOwner) ([]model.Favorite, error) {
	if owner.IsZero() {
		return nil, apperrors.Unauthorized("No user or guest identity")
	}
	favorites, err := s.favoriteRepo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return favorites, nil
}

// Add is idempotent: favoriting an already-favorited product returns the
// existing row.
func (s *FavoriteService) Add(ctx context.Context, owner model.SessionOwner, productID string) (*model.Favorite, error) {
	if owner.IsZero() {
		return nil, apperrors.Unauthorized("No user or guest identity")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("productId", "must not be empty")
	}
	favorite, err := s.favoriteRepo.Create(ctx, model.CreateFavoriteParams{
		Owner:     owner,
		ProductID: productID,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return favorite, nil
}

// Remove reports whether a row was actually deleted; removing an absent
// favorite is not an error.
func (s *FavoriteService) Remove(ctx context.Context, owner model.SessionOwner, productID string) (bool, error) {
	if owner.IsZero() {
		return false, apperrors.Unauthorized("No user or guest identity")
	}
	deleted, err := s.favoriteRepo.Delete(ctx, owner, productID)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return deleted, nil
}
