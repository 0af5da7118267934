package canopy

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var typedJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// TypedResource is a generic, struct-first handle over a resource.
// Items map to records through their json tags; the id field must be
// tagged with the client's configured id field name.
type TypedResource[T any] struct {
	name   string
	client *Client
}

// NewTyped creates a typed resource handle.
func NewTyped[T any](client *Client, name string) *TypedResource[T] {
	return &TypedResource[T]{name: name, client: client}
}

// Get retrieves a typed item by id.
func (t *TypedResource[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	rec, err := t.client.Resource(t.name).GetOne(ctx, id)
	if err != nil {
		return zero, err
	}
	return recordToItem[T](rec)
}

// List runs a list query and returns typed items plus the total match
// count.
func (t *TypedResource[T]) List(ctx context.Context, q ListQuery) ([]T, int, error) {
	recs, total, err := t.client.Resource(t.name).GetList(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	items := make([]T, len(recs))
	for i, rec := range recs {
		items[i], err = recordToItem[T](rec)
		if err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// Create writes a new item and returns it with its allocated id.
func (t *TypedResource[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	fields, err := itemToRecord(item)
	if err != nil {
		return zero, err
	}
	// The allocator owns the id.
	delete(fields, t.client.idField)

	rec, err := t.client.Resource(t.name).Create(ctx, fields)
	if err != nil {
		return zero, err
	}
	return recordToItem[T](rec)
}

// Update merges the item's fields into the stored record and returns
// the result.
func (t *TypedResource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T
	fields, err := itemToRecord(item)
	if err != nil {
		return zero, err
	}
	delete(fields, t.client.idField)

	rec, err := t.client.Resource(t.name).Update(ctx, id, fields)
	if err != nil {
		return zero, err
	}
	return recordToItem[T](rec)
}

// Delete removes an item by id.
func (t *TypedResource[T]) Delete(ctx context.Context, id string) error {
	return t.client.Resource(t.name).Delete(ctx, id)
}

// Subscribe invokes onChange after any mutation under the resource.
func (t *TypedResource[T]) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	return t.client.Resource(t.name).Subscribe(ctx, onChange)
}

func recordToItem[T any](rec Record) (T, error) {
	var item T
	data, err := typedJSON.Marshal(rec)
	if err != nil {
		return item, fmt.Errorf("encode record: %w", err)
	}
	if err := typedJSON.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode record into %T: %w", item, err)
	}
	return item, nil
}

func itemToRecord(item any) (Record, error) {
	data, err := typedJSON.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	var rec Record
	if err := typedJSON.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return rec, nil
}
