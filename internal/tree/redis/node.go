package redis

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/rueidis"

	"github.com/canopy-data/canopy/internal/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetNode returns the JSON subtree at path.
func (s *Store) GetNode(ctx context.Context, path string) ([]byte, error) {
	resource, rest := tree.SplitPath(path)
	key := s.nodeKey(resource)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(jsonPath(rest)).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, tree.ErrNodeNotFound
		}
		return nil, &tree.Error{Op: tree.OpGet, Err: err}
	}
	return unwrapMatches(raw)
}

// Exists reports whether a node is present at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	resource, rest := tree.SplitPath(path)
	key := s.nodeKey(resource)

	if len(rest) == 0 {
		cmd := s.b().Exists().Key(key).Build()
		n, err := s.do(ctx, cmd).AsInt64()
		if err != nil {
			return false, &tree.Error{Op: tree.OpExists, Err: err}
		}
		return n > 0, nil
	}

	cmd := s.b().Arbitrary("JSON.TYPE").Keys(key).Args(jsonPath(rest)).Build()
	types, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, &tree.Error{Op: tree.OpExists, Err: err}
	}
	return len(types) > 0, nil
}

// SetNode replaces the subtree at path, materializing the resource
// document and intermediate objects as needed.
func (s *Store) SetNode(ctx context.Context, path string, data []byte) error {
	resource, rest := tree.SplitPath(path)
	key := s.nodeKey(resource)

	if err := s.ensureParents(ctx, key, rest); err != nil {
		return err
	}

	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(jsonPath(rest), string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &tree.Error{Op: tree.OpSet, Err: err}
	}
	return s.publish(ctx, resource)
}

// MergeNode shallow-merges a JSON object into the node at path. A null
// value removes the field (RFC 7386 semantics).
func (s *Store) MergeNode(ctx context.Context, path string, data []byte) error {
	resource, rest := tree.SplitPath(path)
	key := s.nodeKey(resource)

	if err := s.ensureParents(ctx, key, rest); err != nil {
		return err
	}

	cmd := s.b().Arbitrary("JSON.MERGE").Keys(key).Args(jsonPath(rest), string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &tree.Error{Op: tree.OpMerge, Err: err}
	}
	return s.publish(ctx, resource)
}

// DeleteNode removes the subtree at path. Absent nodes are a no-op.
func (s *Store) DeleteNode(ctx context.Context, path string) error {
	resource, rest := tree.SplitPath(path)
	key := s.nodeKey(resource)

	cmd := s.b().Arbitrary("JSON.DEL").Keys(key).Args(jsonPath(rest)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil
		}
		return &tree.Error{Op: tree.OpDel, Err: err}
	}
	return s.publish(ctx, resource)
}

// ensureParents materializes the resource document root and any
// intermediate objects above the target path with JSON.SET ... NX.
func (s *Store) ensureParents(ctx context.Context, key string, rest []string) error {
	for i := 0; i < len(rest); i++ {
		cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(jsonPath(rest[:i]), "{}", "NX").Build()
		if err := s.do(ctx, cmd).Error(); err != nil && !rueidis.IsRedisNil(err) {
			return &tree.Error{Op: tree.OpSet, Err: err}
		}
	}
	return nil
}

// publish notifies watchers of a mutation under the resource.
func (s *Store) publish(ctx context.Context, resource string) error {
	cmd := s.b().Publish().Channel(s.eventChannel(resource)).Message("1").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &tree.Error{Op: tree.OpPub, Err: err}
	}
	return nil
}

// jsonPath renders subtree segments as a JSONPath with bracket
// notation, so numeric record ids stay valid keys.
func jsonPath(segments []string) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range segments {
		b.WriteString(`["`)
		b.WriteString(seg)
		b.WriteString(`"]`)
	}
	return b.String()
}

// unwrapMatches unpacks the JSONPath match array returned by JSON.GET
// with a $-rooted path: zero matches mean the node is absent.
func unwrapMatches(raw string) ([]byte, error) {
	var matches []jsoniter.RawMessage
	if err := json.Unmarshal([]byte(raw), &matches); err != nil {
		return nil, &tree.Error{Op: tree.OpGet, Err: err}
	}
	if len(matches) == 0 {
		return nil, tree.ErrNodeNotFound
	}
	return matches[0], nil
}
