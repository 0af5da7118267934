// Package query holds the descriptor value types a list query is built
// from: filter clauses, sort keys, and pagination. All types are
// immutable after construction and validated by their constructors.
package query

import (
	"fmt"

	"github.com/canopy-data/canopy/internal/domain"
)

// Pagination defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Direction orders a sort key.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a single field path plus direction.
type Sort struct {
	field     string
	direction Direction
}

// NewSort creates a sort key. Direction defaults to ascending.
func NewSort(field string, direction Direction) (Sort, error) {
	if field == "" {
		return Sort{}, fmt.Errorf("%w: sort field is required", domain.ErrInvalidQuery)
	}
	switch direction {
	case "":
		direction = Asc
	case Asc, Desc:
	default:
		return Sort{}, fmt.Errorf("%w: sort direction must be %q or %q, got %q", domain.ErrInvalidQuery, Asc, Desc, direction)
	}
	return Sort{field: field, direction: direction}, nil
}

// Field returns the dotted field path to sort by.
func (s Sort) Field() string { return s.field }

// Direction returns the sort direction.
func (s Sort) Direction() Direction { return s.direction }

// Page is 1-based pagination: page number and page size.
type Page struct {
	current int
	size    int
}

// NewPage creates pagination. Zero values take the defaults; negative
// values are rejected.
func NewPage(current, size int) (Page, error) {
	if current == 0 {
		current = DefaultPage
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if current < 0 {
		return Page{}, fmt.Errorf("%w: page must be positive, got %d", domain.ErrInvalidQuery, current)
	}
	if size < 0 {
		return Page{}, fmt.Errorf("%w: page size must be positive, got %d", domain.ErrInvalidQuery, size)
	}
	return Page{current: current, size: size}, nil
}

// Current returns the 1-based page number.
func (p Page) Current() int { return p.current }

// Size returns the page size.
func (p Page) Size() int { return p.size }

// Query is a full list-query descriptor: filters (implicit AND), sort
// keys, and pagination.
type Query struct {
	filters []Clause
	sorts   []Sort
	page    Page
}

// New creates a query descriptor. A zero Page takes the defaults.
func New(filters []Clause, sorts []Sort, page Page) (Query, error) {
	if page == (Page{}) {
		var err error
		page, err = NewPage(0, 0)
		if err != nil {
			return Query{}, err
		}
	}
	return Query{filters: filters, sorts: sorts, page: page}, nil
}

// Filters returns the top-level filter clauses in application order.
func (q Query) Filters() []Clause { return q.filters }

// Sorts returns the requested sort keys.
func (q Query) Sorts() []Sort { return q.sorts }

// Page returns the pagination descriptor.
func (q Query) Page() Page { return q.page }
