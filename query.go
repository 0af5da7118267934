package canopy

import (
	"fmt"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
)

// Record is one stored record: a JSON object keyed by field name.
type Record map[string]any

// Operator identifies a comparison kind in a filter.
type Operator string

// Comparison operators. A Filter with a non-empty Or group ignores its
// comparison parts and matches when any child filter matches.
const (
	Eq      Operator = "eq"
	Ne      Operator = "ne"
	Lt      Operator = "lt"
	Gt      Operator = "gt"
	Lte     Operator = "lte"
	Gte     Operator = "gte"
	Null    Operator = "null"
	NotNull Operator = "nnull"
	In      Operator = "in"
	NotIn   Operator = "nin"
)

// Filter is one filter clause: a comparison over a dotted field path, or
// an OR group of child filters. Top-level filters combine with AND by
// sequential application.
type Filter struct {
	Field string
	Op    Operator // empty means Eq
	Value any
	Or    []Filter
}

// Sort orders results by a dotted field path.
type Sort struct {
	Field string
	Order string // "asc" (default) or "desc"
}

// ListQuery describes one list request. Zero page values take the
// defaults (page 1, 10 per page).
type ListQuery struct {
	Filters []Filter
	Sorts   []Sort
	Page    int
	PerPage int
}

func (f Filter) toInternal() (query.Clause, error) {
	if len(f.Or) > 0 {
		children := make([]query.Clause, 0, len(f.Or))
		for _, child := range f.Or {
			c, err := child.toInternal()
			if err != nil {
				return query.Clause{}, err
			}
			children = append(children, c)
		}
		c, err := query.NewOr(children)
		if err != nil {
			return query.Clause{}, fmt.Errorf("canopy: %w", err)
		}
		return c, nil
	}

	op := query.Operator(f.Op)
	if op == "" {
		op = query.OpEq
	}
	c, err := query.NewComparison(f.Field, op, f.Value)
	if err != nil {
		return query.Clause{}, fmt.Errorf("canopy: %w", err)
	}
	return c, nil
}

func (lq ListQuery) toInternal() (query.Query, error) {
	var filters []query.Clause
	for _, f := range lq.Filters {
		c, err := f.toInternal()
		if err != nil {
			return query.Query{}, err
		}
		filters = append(filters, c)
	}

	var sorts []query.Sort
	for _, s := range lq.Sorts {
		k, err := query.NewSort(s.Field, query.Direction(s.Order))
		if err != nil {
			return query.Query{}, fmt.Errorf("canopy: %w", err)
		}
		sorts = append(sorts, k)
	}

	page, err := query.NewPage(lq.Page, lq.PerPage)
	if err != nil {
		return query.Query{}, fmt.Errorf("canopy: %w", err)
	}

	q, err := query.New(filters, sorts, page)
	if err != nil {
		return query.Query{}, fmt.Errorf("canopy: %w", err)
	}
	return q, nil
}

func toPublicRecord(rec domain.Record) Record {
	return Record(rec)
}

func toPublicRecords(recs []domain.Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = Record(r)
	}
	return out
}

func toDomainRecord(rec Record) domain.Record {
	return domain.Record(rec)
}

func toDomainRecords(recs []Record) []domain.Record {
	out := make([]domain.Record, len(recs))
	for i, r := range recs {
		out[i] = domain.Record(r)
	}
	return out
}
