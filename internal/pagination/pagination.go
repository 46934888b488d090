// Package pagination parses page and sort parameters and applies them to
// GORM queries.
package pagination

import (
	"math"
	"slices"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in page 1 and DefaultPageSize, and caps the page size.
func (p *PageRequest) Defaults() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps one page of items with counts.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for req.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}

// Sort orders a listing by a single column.
type Sort struct {
	By    string // column name; must be whitelisted by the caller
	Order string // "asc" or "desc"
}

// Clause builds an ORDER BY clause for s. Columns outside allowed fall back
// to def, the direction defaults to descending, and created_at breaks ties.
func (s Sort) Clause(allowed []string, def string) string {
	col := def
	if slices.Contains(allowed, s.By) {
		col = s.By
	}
	dir := "DESC"
	if strings.EqualFold(s.Order, "asc") {
		dir = "ASC"
	}
	if col == "created_at" {
		return col + " " + dir
	}
	return col + " " + dir + ", created_at " + dir
}

// Find counts the rows matched by q and loads the requested page of them in
// the given order. q must not carry Offset, Limit or Order yet.
func Find[T any](q *gorm.DB, page PageRequest, order string) (*PageResponse[T], error) {
	page.Defaults()
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []T
	if err := q.Order(order).Scopes(Paginate(page)).Find(&items).Error; err != nil {
		return nil, err
	}

	resp := NewPageResponse(items, page.Page, page.PageSize, total)
	return &resp, nil
}
