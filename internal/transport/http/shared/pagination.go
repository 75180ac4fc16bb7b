package shared

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Pagination is a row window. Clients send either limit/offset or the
// page/size pair the admin UI uses; page is zero-based and wins when set.
type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	limit := positive(q.Get("limit"), defaultLimit)
	if size := positive(q.Get("size"), 0); size > 0 {
		limit = size
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		offset = v * limit
	}
	return Pagination{Limit: limit, Offset: offset}
}

func positive(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

// SetTotalCount exposes the unpaged row count alongside a page of results.
func SetTotalCount(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
