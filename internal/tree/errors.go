package tree

import "errors"

// Sentinel errors for store operations.
var (
	ErrNodeNotFound = errors.New("tree: node not found")
	ErrClosed       = errors.New("tree: store closed")
)

// Op constants name store commands for error context.
const (
	OpGet    = "JSON.GET"
	OpSet    = "JSON.SET"
	OpMerge  = "JSON.MERGE"
	OpDel    = "JSON.DEL"
	OpExists = "EXISTS"
	OpPub    = "PUBLISH"
	OpSub    = "SUBSCRIBE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
