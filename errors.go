package canopy

import "github.com/canopy-data/canopy/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrResourceNotFound    = domain.ErrResourceNotFound
	ErrRecordNotFound      = domain.ErrRecordNotFound
	ErrInvalidQuery        = domain.ErrInvalidQuery
	ErrInvalidRecord       = domain.ErrInvalidRecord
	ErrUnsupportedStrategy = domain.ErrUnsupportedStrategy
)
