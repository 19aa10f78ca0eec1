package utils

import (
	"math"
	"strconv"
	"strings"
)

// Pagination describes a window of results within a larger total.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// PageParams is the requested window after defaults and clamping.
type PageParams struct {
	Limit  int
	Offset int
}

// NewPagination computes page metadata from a total and a window.
func NewPagination(total int64, limit, offset int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	if total < 0 {
		total = 0
	}
	l := int64(limit)
	return Pagination{
		Page:    offset/limit + 1,
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		Pages:   int((total + l - 1) / l),
		HasNext: int64(offset)+l < total,
		HasPrev: offset > 0,
	}
}

// ParsePageParams reads page, limit and offset query values. Non-numeric
// input is an error; missing or non-positive values fall back to defaults,
// and limit never exceeds maxLimit. An explicit offset wins over page.
func ParsePageParams(page, limit, offset string, defaultLimit, maxLimit int) (PageParams, error) {
	p, err := parseOptionalInt("page", page)
	if err != nil {
		return PageParams{}, err
	}
	l, err := parseOptionalInt("limit", limit)
	if err != nil {
		return PageParams{}, err
	}
	o, err := parseOptionalInt("offset", offset)
	if err != nil {
		return PageParams{}, err
	}

	if l <= 0 {
		l = defaultLimit
	}
	if l > maxLimit {
		l = maxLimit
	}
	if p <= 0 {
		p = 1
	}
	// (p-1)*l must fit in an int.
	if p > math.MaxInt/l {
		return PageParams{}, NewBadRequestError("invalid page parameter")
	}

	params := PageParams{Limit: l, Offset: (p - 1) * l}
	if strings.TrimSpace(offset) != "" && o >= 0 {
		params.Offset = o
	}
	return params, nil
}

func parseOptionalInt(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewBadRequestError("invalid " + name + " parameter")
	}
	return n, nil
}
