package service

import (
	"fmt"
	"strings"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// Page is a normalized pagination request. SortColumn is a vetted database
// column, never caller input.
type Page struct {
	Number     int
	Limit      int
	SortColumn string
	Descending bool
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// NormalizePage validates pagination parameters against a whitelist of
// sortable fields (API name -> column). Unknown sort fields are rejected
// rather than ignored so they can never reach the sort clause.
func NormalizePage(number, limit int, sortBy, sortOrder string, sortable map[string]string) (Page, error) {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		return Page{}, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidInput, maxPageLimit)
	}

	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortable[sortBy]
	if !ok {
		return Page{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidInput, sortBy)
	}

	descending := true
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "", "desc":
	case "asc":
		descending = false
	default:
		return Page{}, fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidInput)
	}

	return Page{
		Number:     number,
		Limit:      limit,
		SortColumn: column,
		Descending: descending,
	}, nil
}
