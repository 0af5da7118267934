package provider

import (
	"context"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
	"github.com/canopy-data/canopy/internal/engine"
)

// Repository defines the storage contract for resource records.
type Repository interface {
	FetchCollection(ctx context.Context, resource string) ([]domain.Record, error)
	FetchOne(ctx context.Context, resource, id string) (domain.Record, error)
	Create(ctx context.Context, resource, id string, fields domain.Record) (domain.Record, error)
	Update(ctx context.Context, resource, id string, partial domain.Record) (domain.Record, error)
	Delete(ctx context.Context, resource, id string) error
	Watch(ctx context.Context, resource string, fn func()) (stop func(), err error)
}

// QueryEngine evaluates list queries over a materialized collection.
type QueryEngine interface {
	Run(records []domain.Record, q query.Query) engine.Result
}
