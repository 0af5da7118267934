package canopy

import (
	"context"
	"fmt"

	provideruc "github.com/canopy-data/canopy/internal/usecase/provider"
)

// ResourceService exposes the data-provider operations for one resource
// collection.
type ResourceService struct {
	name string
	svc  *provideruc.Service
}

// GetList runs a list query over the resource and returns one page of
// records plus the total match count before pagination.
func (r *ResourceService) GetList(ctx context.Context, q ListQuery) ([]Record, int, error) {
	iq, err := q.toInternal()
	if err != nil {
		return nil, 0, err
	}

	res, err := r.svc.GetList(ctx, r.name, iq)
	if err != nil {
		return nil, 0, fmt.Errorf("get list %q: %w", r.name, err)
	}
	return toPublicRecords(res.Records), res.Total, nil
}

// GetOne returns a single record by id.
func (r *ResourceService) GetOne(ctx context.Context, id string) (Record, error) {
	rec, err := r.svc.GetOne(ctx, r.name, id)
	if err != nil {
		return nil, fmt.Errorf("get one %q/%s: %w", r.name, id, err)
	}
	return toPublicRecord(rec), nil
}

// GetMany returns the records for the given ids. Missing ids are
// skipped rather than failing the whole batch.
func (r *ResourceService) GetMany(ctx context.Context, ids []string) ([]Record, error) {
	recs, err := r.svc.GetMany(ctx, r.name, ids)
	if err != nil {
		return nil, fmt.Errorf("get many %q: %w", r.name, err)
	}
	return toPublicRecords(recs), nil
}

// Create writes a new record with a freshly allocated id and returns it.
func (r *ResourceService) Create(ctx context.Context, fields Record) (Record, error) {
	rec, err := r.svc.Create(ctx, r.name, toDomainRecord(fields))
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", r.name, err)
	}
	return toPublicRecord(rec), nil
}

// CreateMany creates each record in order and returns them with their ids.
func (r *ResourceService) CreateMany(ctx context.Context, items []Record) ([]Record, error) {
	recs, err := r.svc.CreateMany(ctx, r.name, toDomainRecords(items))
	if err != nil {
		return nil, fmt.Errorf("create many %q: %w", r.name, err)
	}
	return toPublicRecords(recs), nil
}

// Update merges partial fields into a record and returns the result.
func (r *ResourceService) Update(ctx context.Context, id string, partial Record) (Record, error) {
	rec, err := r.svc.Update(ctx, r.name, id, toDomainRecord(partial))
	if err != nil {
		return nil, fmt.Errorf("update %q/%s: %w", r.name, id, err)
	}
	return toPublicRecord(rec), nil
}

// UpdateMany applies the same partial fields to every id. Unlike
// GetMany it fails loudly on the first missing record.
func (r *ResourceService) UpdateMany(ctx context.Context, ids []string, partial Record) ([]string, error) {
	updated, err := r.svc.UpdateMany(ctx, r.name, ids, toDomainRecord(partial))
	if err != nil {
		return nil, fmt.Errorf("update many %q: %w", r.name, err)
	}
	return updated, nil
}

// Delete removes a record by id.
func (r *ResourceService) Delete(ctx context.Context, id string) error {
	if err := r.svc.Delete(ctx, r.name, id); err != nil {
		return fmt.Errorf("delete %q/%s: %w", r.name, id, err)
	}
	return nil
}

// DeleteMany removes every id and returns the ids deleted.
func (r *ResourceService) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	deleted, err := r.svc.DeleteMany(ctx, r.name, ids)
	if err != nil {
		return nil, fmt.Errorf("delete many %q: %w", r.name, err)
	}
	return deleted, nil
}

// Subscribe invokes onChange after any mutation under the resource. The
// notification carries no change classification; subscribers re-query.
// The returned stop function cancels the subscription.
func (r *ResourceService) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	stop, err := r.svc.Subscribe(ctx, r.name, onChange)
	if err != nil {
		return nil, fmt.Errorf("subscribe %q: %w", r.name, err)
	}
	return stop, nil
}

// List returns a fluent builder for a list query over this resource.
func (r *ResourceService) List() *ListBuilder {
	return &ListBuilder{res: r}
}
