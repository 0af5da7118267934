// Package engine evaluates list queries over an already-materialized
// record collection. The store has no query language of its own, so
// filtering, sorting, and pagination all happen here, in memory, after
// the whole resource has been fetched.
//
// The engine is synchronous and side-effect-free: it performs no I/O,
// holds no state between calls, and is safe for concurrent use on
// independent input.
package engine

import (
	"sort"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
)

// Result is one page of records plus the total count of records that
// matched filtering, before pagination.
type Result struct {
	Records []domain.Record
	Total   int
}

// Engine runs list queries. idField names the record identifier used
// to deduplicate OR-branch unions.
type Engine struct {
	idField string
}

// New creates a query engine.
func New(idField string) *Engine {
	if idField == "" {
		idField = domain.DefaultIDField
	}
	return &Engine{idField: idField}
}

// Run filters, sorts, and paginates records according to the query.
// It never fails: zero matches yield an empty page with Total 0.
func (e *Engine) Run(records []domain.Record, q query.Query) Result {
	matched := e.filter(records, q.Filters())
	e.sortRecords(matched, q.Sorts())
	return Result{
		Records: paginate(matched, q.Page()),
		Total:   len(matched),
	}
}

// filter applies the top-level clauses as a sequential AND: each clause
// narrows the candidate set left by the previous one.
func (e *Engine) filter(records []domain.Record, clauses []query.Clause) []domain.Record {
	candidates := make([]domain.Record, len(records))
	copy(candidates, records)

	for _, clause := range clauses {
		if clause.IsOr() {
			candidates = e.unionOr(candidates, clause.Children())
			continue
		}
		cmp := clause.Comparison()
		kept := candidates[:0]
		for _, rec := range candidates {
			if matches(rec, cmp) {
				kept = append(kept, rec)
			}
		}
		candidates = kept
	}
	return candidates
}

// unionOr evaluates each child clause against the current candidate set
// (the set as narrowed by the AND clauses processed so far, not the
// original collection) and unions the subsets, deduplicated by the
// record identifier. Children preserve first-seen order.
func (e *Engine) unionOr(candidates []domain.Record, children []query.Clause) []domain.Record {
	var union []domain.Record
	seen := make(map[string]struct{}, len(candidates))

	for _, child := range children {
		var subset []domain.Record
		if child.IsOr() {
			subset = e.unionOr(candidates, child.Children())
		} else {
			cmp := child.Comparison()
			for _, rec := range candidates {
				if matches(rec, cmp) {
					subset = append(subset, rec)
				}
			}
		}
		for _, rec := range subset {
			id := rec.ID(e.idField)
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			union = append(union, rec)
		}
	}
	return union
}

// sortRecords orders records in place by the first sort key only; any
// additional keys are ignored. Descending order is produced by sorting
// ascending and reversing the whole slice afterwards.
func (e *Engine) sortRecords(records []domain.Record, sorts []query.Sort) {
	if len(sorts) == 0 {
		return
	}
	key := sorts[0]

	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i].At(key.Field())
		b, _ := records[j].At(key.Field())
		return looseLess(a, b)
	})

	if key.Direction() == query.Desc {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
}

// paginate returns the half-open slice [(page-1)*size, page*size)
// clipped to the record bounds. A partial or empty final page is valid.
func paginate(records []domain.Record, page query.Page) []domain.Record {
	start := (page.Current() - 1) * page.Size()
	end := page.Current() * page.Size()

	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
