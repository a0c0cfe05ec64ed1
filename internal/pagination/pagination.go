// Package pagination implements the shared page/limit contract for list
// endpoints, decoupled from the storage driver. Callers parse Params from the
// query string, stores return (items, totalCount), and handlers wrap both in a
// Page envelope.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit caps the page size so a single request cannot ask for an
	// unbounded response.
	MaxLimit = 100
)

// Params are sanitized pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// FromQuery parses page and limit defensively: non-numeric, absent or
// out-of-range values fall back to defaults, and limit is capped at MaxLimit.
func FromQuery(q url.Values) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v >= 1 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Normalize returns a copy with defaults applied, for Params built in code.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the zero-based item offset for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the paginated result envelope.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNextPage"`
	HasPrev    bool `json:"hasPrevPage"`
}

// NewPage assembles the envelope. A page past the end yields an empty item
// list with the correct totals.
func NewPage[T any](items []T, p Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1 && total > 0,
	}
}

// Slice applies Params to an in-memory slice, returning the page plus the
// total length. Used by the memory store.
func Slice[T any](items []T, p Params) ([]T, int) {
	total := len(items)
	start := p.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], total
}
