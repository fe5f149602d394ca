package handler

import (
	"net/http"
	"strconv"

	"github.com/pol60/bastshin-sessions/internal/model"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request) PaginationParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	if offset < 0 {
		offset = 0
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}

// ParseSessionSort reads sort/dir query parameters. Unknown sort keys fall
// back to last_activity; the default direction is newest first.
func ParseSessionSort(r *http.Request) (model.SessionSortKey, bool) {
	sort := model.SessionSortKey(r.URL.Query().Get("sort"))
	if !sort.Valid() {
		sort = model.SessionSortLastActivity
	}

	desc := true
	if r.URL.Query().Get("dir") == "asc" {
		desc = false
	}

	return sort, desc
}
