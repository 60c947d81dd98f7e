package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination represents pagination metadata
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
	Offset  int   `json:"-"`
}

// Request represents a pagination request from client
type Request struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// Offset returns the number of rows to skip for this request
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// New creates a new pagination instance
func New(page, limit int, total int64) *Pagination {
	req := normalize(page, limit)

	pages := int(math.Ceil(float64(total) / float64(req.Limit)))
	if pages < 1 {
		pages = 1
	}

	return &Pagination{
		Page:    req.Page,
		Limit:   req.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: req.Page < pages,
		HasPrev: req.Page > 1,
		Offset:  req.Offset(),
	}
}

// FromRequest creates pagination from HTTP request parameters
func FromRequest(pageStr, limitStr string) Request {
	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)
	return normalize(page, limit)
}

func normalize(page, limit int) Request {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{Page: page, Limit: limit}
}
