package canopy

import (
	"context"

	"go.uber.org/zap"
)

// IDStrategy selects how ids are minted for created records.
type IDStrategy string

// Id allocation strategies.
const (
	// IDMaxPlusOne scans existing numeric ids and mints max+1.
	// Default. Creates within one resource are serialized to keep the
	// scan valid.
	IDMaxPlusOne IDStrategy = "max-plus-one"
	// IDUUID mints random UUIDv4 ids.
	IDUUID IDStrategy = "uuid"
)

// IDAllocator mints an id for a new record given the current records of
// the resource.
type IDAllocator func(ctx context.Context, resource string, existing []Record) (string, error)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "redis" or "memory"
	addrs     []string
	password  string
	keyPrefix string

	idField    string
	idStrategy IDStrategy
	allocator  IDAllocator

	logger *zap.Logger
}

// WithMemory configures the client to use the in-process memory driver.
// This is the default when no driver option is given.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithRedis configures the client to connect to a Redis instance with
// the RedisJSON module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the key namespace for the redis driver.
// Defaults to "canopy:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithIDField sets the record field that carries the id. Defaults to "id".
func WithIDField(field string) Option {
	return optionFunc(func(c *clientConfig) {
		c.idField = field
	})
}

// WithIDStrategy selects the id allocation strategy for created records.
func WithIDStrategy(s IDStrategy) Option {
	return optionFunc(func(c *clientConfig) {
		c.idStrategy = s
	})
}

// WithIDAllocator installs a custom id allocator. Takes precedence over
// WithIDStrategy.
func WithIDAllocator(fn IDAllocator) Option {
	return optionFunc(func(c *clientConfig) {
		c.allocator = fn
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
