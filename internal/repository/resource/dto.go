package resource

import (
	"fmt"
	"sort"

	"github.com/canopy-data/canopy/internal/domain"
)

// decodeCollection unpacks a resource node (object keyed by record id)
// into records with the id field injected. Records come back in id
// order — numeric ids numerically, others lexically — so an unsorted
// list query still paginates deterministically.
func decodeCollection(raw []byte, idField string) ([]domain.Record, error) {
	var node map[string]map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	ids := make([]string, 0, len(node))
	for id := range node {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aNum := domain.Number(ids[i])
		b, bNum := domain.Number(ids[j])
		if aNum && bNum {
			return a < b
		}
		if aNum != bNum {
			return aNum
		}
		return ids[i] < ids[j]
	})

	records := make([]domain.Record, 0, len(node))
	for _, id := range ids {
		rec := domain.Record(node[id])
		if rec == nil {
			rec = domain.Record{}
		}
		rec[idField] = id
		records = append(records, rec)
	}
	return records, nil
}

// decodeRecord unpacks a single record node, injecting the id field.
func decodeRecord(raw []byte, idField, id string) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec == nil {
		rec = domain.Record{}
	}
	rec[idField] = id
	return rec, nil
}

// encodeFields serializes record fields for storage. The identifier
// lives in the node key, never in the payload.
func encodeFields(fields domain.Record, idField string) ([]byte, error) {
	payload := fields.Clone()
	delete(payload, idField)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}
	return data, nil
}
