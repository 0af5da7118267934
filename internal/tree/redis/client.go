// Package redis implements tree.Store on Redis 8+ with RedisJSON.
// Every resource lives in one JSON document keyed by record id;
// mutations publish a tick on a per-resource channel so watchers can
// re-read.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/canopy-data/canopy/internal/tree"
)

// Compile-time check: Store implements tree.Store.
var _ tree.Store = (*Store)(nil)

const defaultKeyPrefix = "canopy:"

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string

	// OnWatchError is invoked when a watch subscription ends for any
	// reason other than its stop function or context. Optional.
	OnWatchError func(error)
}

// Store implements tree.Store via rueidis.
type Store struct {
	client     rueidis.Client
	prefix     string
	onWatchErr func(error)
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix, onWatchErr: cfg.OnWatchError}, nil
}

// NewStoreForTest wraps an existing rueidis client (used with the
// rueidis mock in tests).
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client, prefix: defaultKeyPrefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// nodeKey returns the Redis key holding a resource's JSON document.
func (s *Store) nodeKey(resource string) string {
	return s.prefix + "node:" + resource
}

// eventChannel returns the pub/sub channel for a resource's mutations.
func (s *Store) eventChannel(resource string) string {
	return s.prefix + "events:" + resource
}
