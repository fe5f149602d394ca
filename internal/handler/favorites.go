package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pol60/bastshin-sessions/internal/guestid"
	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/service"
)

type FavoritesHandler struct {
	favoriteService *service.FavoriteService
}

func NewFavoritesHandler(favoriteService *service.FavoriteService) *FavoritesHandler {
	return &FavoritesHandler{favoriteService: favoriteService}
}

func (h *FavoritesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Delete("/{productID}", h.Remove)

	return r
}

// GET /v1/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.favoriteService.List(r.Context(), ownerFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

type addFavoriteRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}

// POST /v1/favorites
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	favorite, err := h.favoriteService.Add(r.Context(), ownerFromRequest(r), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, favorite)
}

// DELETE /v1/favorites/{productID}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	if _, err := h.favoriteService.Remove(r.Context(), ownerFromRequest(r), productID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ownerFromRequest(r *http.Request) model.SessionOwner {
	if user := middleware.GetUser(r.Context()); user != nil {
		return model.UserOwner(user.ID)
	}
	// A malformed header value never reaches the uuid-typed guest_id
	// column; it is treated the same as no id.
	if guestID := middleware.GuestID(r); guestid.Valid(guestID) {
		return model.GuestOwner(guestID)
	}
	return model.SessionOwner{}
}
