// Package resource stores records under a tree path per resource:
// the resource node is an object keyed by record id, each value the
// record's fields (without the id, which lives in the key).
package resource

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// store is the consumer interface for record storage.
type store interface {
	GetNode(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	SetNode(ctx context.Context, path string, data []byte) error
	MergeNode(ctx context.Context, path string, data []byte) error
	DeleteNode(ctx context.Context, path string) error
	Watch(ctx context.Context, path string, fn func()) (func(), error)
}

// Repo implements usecase/provider.Repository over a tree store.
type Repo struct {
	store   store
	idField string
}

// New creates a resource repository. idField names the identifier
// field injected into every returned record.
func New(s store, idField string) *Repo {
	if idField == "" {
		idField = domain.DefaultIDField
	}
	return &Repo{store: s, idField: idField}
}

// FetchCollection returns every record under the resource, in the
// node's key order. A missing resource node is ErrResourceNotFound —
// distinct from an existing resource with zero records.
func (r *Repo) FetchCollection(ctx context.Context, resourceName string) ([]domain.Record, error) {
	raw, err := r.store.GetNode(ctx, resourceName)
	if err != nil {
		if errors.Is(err, tree.ErrNodeNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, resourceName)
		}
		return nil, fmt.Errorf("get node %s: %w", resourceName, err)
	}
	return decodeCollection(raw, r.idField)
}

// FetchOne returns a single record by id.
func (r *Repo) FetchOne(ctx context.Context, resourceName, id string) (domain.Record, error) {
	raw, err := r.store.GetNode(ctx, recordPath(resourceName, id))
	if err != nil {
		if errors.Is(err, tree.ErrNodeNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, resourceName, id)
		}
		return nil, fmt.Errorf("get node %s/%s: %w", resourceName, id, err)
	}
	return decodeRecord(raw, r.idField, id)
}

// Create writes a new record under the given id and returns it.
func (r *Repo) Create(
	ctx context.Context, resourceName, id string, fields domain.Record,
) (domain.Record, error) {
	data, err := encodeFields(fields, r.idField)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetNode(ctx, recordPath(resourceName, id), data); err != nil {
		return nil, fmt.Errorf("set node %s/%s: %w", resourceName, id, err)
	}

	rec := fields.Clone()
	rec[r.idField] = id
	return rec, nil
}

// Update merges partial fields into an existing record and returns the
// updated record.
func (r *Repo) Update(
	ctx context.Context, resourceName, id string, partial domain.Record,
) (domain.Record, error) {
	exists, err := r.store.Exists(ctx, recordPath(resourceName, id))
	if err != nil {
		return nil, fmt.Errorf("check exists %s/%s: %w", resourceName, id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, resourceName, id)
	}

	data, err := encodeFields(partial, r.idField)
	if err != nil {
		return nil, err
	}
	if err := r.store.MergeNode(ctx, recordPath(resourceName, id), data); err != nil {
		return nil, fmt.Errorf("merge node %s/%s: %w", resourceName, id, err)
	}
	return r.FetchOne(ctx, resourceName, id)
}

// Delete removes a record by id.
func (r *Repo) Delete(ctx context.Context, resourceName, id string) error {
	if err := r.store.DeleteNode(ctx, recordPath(resourceName, id)); err != nil {
		return fmt.Errorf("delete node %s/%s: %w", resourceName, id, err)
	}
	return nil
}

// Watch invokes fn on any mutation under the resource subtree.
func (r *Repo) Watch(ctx context.Context, resourceName string, fn func()) (func(), error) {
	stop, err := r.store.Watch(ctx, resourceName, fn)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", resourceName, err)
	}
	return stop, nil
}

func recordPath(resourceName, id string) string {
	return tree.JoinPath(resourceName, id)
}
