// Package memory implements an in-process tree store. It backs tests,
// examples, and single-node deployments where no external store is
// wanted.
package memory

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/canopy-data/canopy/internal/tree"
)

// Compile-time check: Store implements tree.Store.
var _ tree.Store = (*Store)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store holds the whole tree as nested maps guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	root     map[string]any
	watchers map[int]*watcher
	nextID   int
	closed   bool
}

type watcher struct {
	resource string
	fn       func()
}

// NewStore creates an empty in-memory tree store.
func NewStore() *Store {
	return &Store{
		root:     make(map[string]any),
		watchers: make(map[int]*watcher),
	}
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return tree.ErrClosed
	}
	return nil
}

// Close marks the store closed and drops all watchers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.watchers = make(map[int]*watcher)
}

// WaitForReady is immediate for the in-memory store.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Ping(ctx)
}

// GetNode returns the JSON subtree at path.
func (s *Store) GetNode(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, tree.ErrClosed
	}

	val, ok := s.resolve(path)
	if !ok {
		return nil, tree.ErrNodeNotFound
	}
	data, err := json.Marshal(val)
	if err != nil {
		return nil, &tree.Error{Op: tree.OpGet, Err: err}
	}
	return data, nil
}

// Exists reports whether a node is present at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, tree.ErrClosed
	}
	_, ok := s.resolve(path)
	return ok, nil
}

// SetNode replaces the subtree at path, creating intermediate nodes.
func (s *Store) SetNode(_ context.Context, path string, data []byte) error {
	var val any
	if err := json.Unmarshal(data, &val); err != nil {
		return &tree.Error{Op: tree.OpSet, Err: err}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return tree.ErrClosed
	}
	parent, leaf, err := s.parentOf(path, true)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	parent[leaf] = val
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	dispatch(notify)
	return nil
}

// MergeNode shallow-merges a JSON object into the node at path.
func (s *Store) MergeNode(_ context.Context, path string, data []byte) error {
	var patch map[string]any
	if err := json.Unmarshal(data, &patch); err != nil {
		return &tree.Error{Op: tree.OpMerge, Err: err}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return tree.ErrClosed
	}
	parent, leaf, err := s.parentOf(path, true)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	node, ok := parent[leaf].(map[string]any)
	if !ok {
		node = make(map[string]any)
		parent[leaf] = node
	}
	for k, v := range patch {
		if v == nil {
			delete(node, k)
			continue
		}
		node[k] = v
	}
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	dispatch(notify)
	return nil
}

// DeleteNode removes the subtree at path. Absent nodes are a no-op.
func (s *Store) DeleteNode(_ context.Context, path string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return tree.ErrClosed
	}
	parent, leaf, err := s.parentOf(path, false)
	if err != nil || parent == nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := parent[leaf]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(parent, leaf)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	dispatch(notify)
	return nil
}

// Watch registers fn for mutations under path's resource.
func (s *Store) Watch(ctx context.Context, path string, fn func()) (func(), error) {
	resource, _ := tree.SplitPath(path)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, tree.ErrClosed
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = &watcher{resource: resource, fn: fn}
	s.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	return stop, nil
}

// resolve walks the tree without locking; callers hold the mutex.
func (s *Store) resolve(path string) (any, bool) {
	resource, rest := tree.SplitPath(path)
	if resource == "" {
		return s.root, true
	}
	var cur any
	cur, ok := s.root[resource]
	if !ok {
		return nil, false
	}
	for _, seg := range rest {
		m, mok := cur.(map[string]any)
		if !mok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// parentOf returns the map holding the path's final segment. With
// create set, missing intermediate nodes are materialized; otherwise a
// missing intermediate yields (nil, "", nil).
func (s *Store) parentOf(path string, create bool) (map[string]any, string, error) {
	resource, rest := tree.SplitPath(path)
	if resource == "" {
		return nil, "", &tree.Error{Op: tree.OpSet, Err: tree.ErrNodeNotFound}
	}

	segs := append([]string{resource}, rest...)
	cur := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := cur[seg].(map[string]any)
		if !ok {
			if !create {
				return nil, "", nil
			}
			child = make(map[string]any)
			cur[seg] = child
		}
		cur = child
	}
	return cur, segs[len(segs)-1], nil
}

// pendingNotifications collects watcher callbacks for a mutation at
// path; callers hold the mutex and dispatch after releasing it.
func (s *Store) pendingNotifications(path string) []func() {
	resource, _ := tree.SplitPath(path)
	var fns []func()
	for _, w := range s.watchers {
		if w.resource == "" || w.resource == resource {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

func dispatch(fns []func()) {
	for _, fn := range fns {
		go fn()
	}
}
