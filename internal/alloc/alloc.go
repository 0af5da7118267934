// Package alloc provides id allocation strategies for record creation.
// The strategy is an enumerated configuration value rather than mutable
// shared state; callers plug a custom Func for anything beyond the
// built-ins.
package alloc

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/canopy-data/canopy/internal/domain"
)

// Strategy names a built-in id allocation scheme.
type Strategy string

const (
	// StrategyMaxPlusOne allocates one greater than the largest numeric
	// id currently present. Not atomic: concurrent creates against the
	// same resource must be serialized by the caller to stay unique.
	StrategyMaxPlusOne Strategy = "max-plus-one"
	// StrategyUUID allocates a random UUID.
	StrategyUUID Strategy = "uuid"
)

// Func produces the identifier for a record about to be created.
// records is the current snapshot of the resource collection.
type Func func(ctx context.Context, resource string, records []domain.Record) (string, error)

// New returns the allocation Func for a built-in strategy. idField
// names the record identifier field inspected by max-plus-one.
func New(strategy Strategy, idField string) (Func, error) {
	if idField == "" {
		idField = domain.DefaultIDField
	}
	switch strategy {
	case "", StrategyMaxPlusOne:
		return maxPlusOne(idField), nil
	case StrategyUUID:
		return randomUUID, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStrategy, strategy)
	}
}

func maxPlusOne(idField string) Func {
	return func(_ context.Context, _ string, records []domain.Record) (string, error) {
		max := 0.0
		for _, rec := range records {
			v, ok := rec.At(idField)
			if !ok {
				continue
			}
			if f, ok := domain.Number(v); ok && f > max {
				max = f
			}
		}
		next := math.Floor(max) + 1
		return domain.Stringify(next), nil
	}
}

func randomUUID(_ context.Context, _ string, _ []domain.Record) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}
