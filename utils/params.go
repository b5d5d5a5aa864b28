package utils

import (
	"net/http"
	"strconv"
)

type QueryOptions struct {
	Limit int
}

// ParseQueryOptions reads list options. A missing or non-positive limit
// becomes def; anything above max is clamped.
func ParseQueryOptions(r *http.Request, def, max int) QueryOptions {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return QueryOptions{Limit: limit}
}
