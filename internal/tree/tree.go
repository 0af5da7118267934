// Package tree defines the facade over the hierarchical key-value
// store. Paths are slash-separated ("posts/42/author"); the first
// segment names the resource, the rest descends into the node's JSON
// subtree. Node payloads are raw JSON.
package tree

import (
	"context"
	"strings"
	"time"
)

// Store is the main store facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces they use.
type Store interface {
	Pinger
	NodeReader
	NodeWriter
	Watcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NodeReader reads tree nodes.
type NodeReader interface {
	// GetNode returns the raw JSON subtree at path, or ErrNodeNotFound.
	GetNode(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// NodeWriter mutates tree nodes.
type NodeWriter interface {
	// SetNode replaces the subtree at path with the given JSON value.
	SetNode(ctx context.Context, path string, data []byte) error
	// MergeNode shallow-merges a JSON object into the node at path.
	MergeNode(ctx context.Context, path string, data []byte) error
	// DeleteNode removes the subtree at path. Deleting an absent node
	// is not an error.
	DeleteNode(ctx context.Context, path string) error
}

// Watcher notifies on mutations under a subtree. The notification does
// not classify the change or identify the record; subscribers re-read.
type Watcher interface {
	// Watch invokes fn after every mutation under path until stop is
	// called or ctx is done.
	Watch(ctx context.Context, path string, fn func()) (stop func(), err error)
}

// SplitPath separates a path into its resource (first segment) and the
// remaining subpath segments.
func SplitPath(path string) (resource string, rest []string) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", nil
	}
	segs := strings.Split(path, "/")
	return segs[0], segs[1:]
}

// JoinPath assembles a slash-separated path from segments.
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}
