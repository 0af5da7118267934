package domain

import "errors"

var (
	// ErrResourceNotFound signals that a resource path does not exist in the store.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrRecordNotFound signals a missing record within an existing resource.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidQuery signals a malformed query descriptor.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidRecord signals record data that cannot be stored.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnsupportedStrategy signals an unknown id allocation strategy.
	ErrUnsupportedStrategy = errors.New("unsupported id strategy")
)
