// internal/models/pagination.go
package models

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 12
	MaxPerPage     = 50
)

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int64 `json:"page"`
	PerPage int64 `json:"per_page"`
	Total   int64 `json:"total"`
}

func (p Page[T]) TotalPages() int64 {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }

func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages() }

// NormalizePaging clamps page to >= 1 and falls back to the default page
// size when perPage is outside 1..MaxPerPage.
func NormalizePaging(page, perPage int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// Offset returns the row offset for a normalized page.
func Offset(page, perPage int64) int64 {
	return (page - 1) * perPage
}

// PagingFromQuery reads page and per_page, ignoring garbage.
func PagingFromQuery(values url.Values) (int64, int64) {
	page, _ := strconv.ParseInt(strings.TrimSpace(values.Get("page")), 10, 64)
	perPage, _ := strconv.ParseInt(strings.TrimSpace(values.Get("per_page")), 10, 64)
	return NormalizePaging(page, perPage)
}
