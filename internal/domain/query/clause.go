package query

import (
	"fmt"

	"github.com/canopy-data/canopy/internal/domain"
)

// Operator identifies a comparison kind in a filter clause.
type Operator string

// Comparison operators. Or is the only composite operator: multiple
// top-level clauses are ANDed together by sequential application, so an
// explicit AND never appears.
const (
	OpEq      Operator = "eq"
	OpNe      Operator = "ne"
	OpLt      Operator = "lt"
	OpGt      Operator = "gt"
	OpLte     Operator = "lte"
	OpGte     Operator = "gte"
	OpNull    Operator = "null"
	OpNotNull Operator = "nnull"
	OpIn      Operator = "in"
	OpNotIn   Operator = "nin"
	OpOr      Operator = "or"
)

// Clause is a single filter: either a Comparison or an OR group of
// child clauses.
type Clause struct {
	cmp      *Comparison
	children []Clause
}

// NewComparison creates a comparison clause.
func NewComparison(field string, op Operator, value any) (Clause, error) {
	c, err := newComparison(field, op, value)
	if err != nil {
		return Clause{}, err
	}
	return Clause{cmp: &c}, nil
}

// NewOr creates a composite OR clause from child clauses.
func NewOr(children []Clause) (Clause, error) {
	if len(children) == 0 {
		return Clause{}, fmt.Errorf("%w: or group requires at least one child clause", domain.ErrInvalidQuery)
	}
	return Clause{children: children}, nil
}

// IsOr reports whether the clause is a composite OR group.
func (c Clause) IsOr() bool { return c.cmp == nil }

// Comparison returns the underlying comparison. Valid only when IsOr is false.
func (c Clause) Comparison() Comparison {
	if c.cmp == nil {
		return Comparison{}
	}
	return *c.cmp
}

// Children returns the child clauses of an OR group.
func (c Clause) Children() []Clause { return c.children }

// Comparison is a field path, an operator, and an operand value.
type Comparison struct {
	field string
	op    Operator
	value any
}

func newComparison(field string, op Operator, value any) (Comparison, error) {
	if field == "" {
		return Comparison{}, fmt.Errorf("%w: filter field is required", domain.ErrInvalidQuery)
	}
	if op == OpOr {
		return Comparison{}, fmt.Errorf("%w: or is not a comparison operator", domain.ErrInvalidQuery)
	}
	return Comparison{field: field, op: op, value: value}, nil
}

// Field returns the dotted field path the comparison resolves.
func (c Comparison) Field() string { return c.field }

// Op returns the comparison operator.
func (c Comparison) Op() Operator { return c.op }

// Value returns the operand value.
func (c Comparison) Value() any { return c.value }
