package canopy

import "context"

// ListBuilder is a fluent builder for list queries.
type ListBuilder struct {
	res *ResourceService
	q   ListQuery
}

// Where adds a comparison filter. Top-level filters combine with AND.
func (b *ListBuilder) Where(field string, op Operator, value any) *ListBuilder {
	b.q.Filters = append(b.q.Filters, Filter{Field: field, Op: op, Value: value})
	return b
}

// WhereEq adds an equality filter.
func (b *ListBuilder) WhereEq(field string, value any) *ListBuilder {
	return b.Where(field, Eq, value)
}

// WhereAny adds an OR group: the clause matches when any child filter
// matches.
func (b *ListBuilder) WhereAny(filters ...Filter) *ListBuilder {
	b.q.Filters = append(b.q.Filters, Filter{Or: filters})
	return b
}

// Sort orders results ascending by the given field path.
func (b *ListBuilder) Sort(field string) *ListBuilder {
	b.q.Sorts = append(b.q.Sorts, Sort{Field: field, Order: "asc"})
	return b
}

// SortDesc orders results descending by the given field path.
func (b *ListBuilder) SortDesc(field string) *ListBuilder {
	b.q.Sorts = append(b.q.Sorts, Sort{Field: field, Order: "desc"})
	return b
}

// Page sets the 1-based page number.
func (b *ListBuilder) Page(n int) *ListBuilder {
	b.q.Page = n
	return b
}

// PerPage sets the page size.
func (b *ListBuilder) PerPage(n int) *ListBuilder {
	b.q.PerPage = n
	return b
}

// Do executes the query and returns one page of records plus the total
// match count.
func (b *ListBuilder) Do(ctx context.Context) ([]Record, int, error) {
	return b.res.GetList(ctx, b.q)
}
