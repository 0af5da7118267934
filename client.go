package canopy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/canopy-data/canopy/internal/alloc"
	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/engine"
	"github.com/canopy-data/canopy/internal/repository/resource"
	"github.com/canopy-data/canopy/internal/tree"
	treememory "github.com/canopy-data/canopy/internal/tree/memory"
	treeredis "github.com/canopy-data/canopy/internal/tree/redis"
	healthuc "github.com/canopy-data/canopy/internal/usecase/health"
	provideruc "github.com/canopy-data/canopy/internal/usecase/provider"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the canopy SDK entry point.
type Client struct {
	store     tree.Store
	provider  *provideruc.Service
	healthSvc *healthuc.Service
	idField   string
}

// New creates a canopy Client. With no driver option it runs on the
// in-process memory driver. The provided context is used for the
// initial readiness check of remote drivers.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:  "memory",
		idField: domain.DefaultIDField,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.driver == "redis" {
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("canopy: store not ready: %w", err)
		}
	}

	return wireClient(store, cfg)
}

func createStore(cfg *clientConfig) (tree.Store, error) {
	switch cfg.driver {
	case "memory":
		return treememory.NewStore(), nil
	case "redis":
		s, err := treeredis.NewStore(treeredis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("canopy: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("canopy: unknown driver %q", cfg.driver)
	}
}

func wireClient(store tree.Store, cfg *clientConfig) (*Client, error) {
	allocate, err := buildAllocator(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repo := resource.New(store, cfg.idField)
	providerSvc := provideruc.New(repo, engine.New(cfg.idField), allocate, logger)

	return &Client{
		store:     store,
		provider:  providerSvc,
		healthSvc: healthuc.New(store),
		idField:   cfg.idField,
	}, nil
}

func buildAllocator(cfg *clientConfig) (alloc.Func, error) {
	if cfg.allocator != nil {
		custom := cfg.allocator
		return func(ctx context.Context, res string, records []domain.Record) (string, error) {
			id, err := custom(ctx, res, toPublicRecords(records))
			if err != nil {
				return "", fmt.Errorf("custom allocator: %w", err)
			}
			return id, nil
		}, nil
	}

	strategy := alloc.Strategy(cfg.idStrategy)
	allocate, err := alloc.New(strategy, cfg.idField)
	if err != nil {
		return nil, fmt.Errorf("canopy: %w", err)
	}
	return allocate, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the health of all components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Resource returns the service handle for one resource collection.
func (c *Client) Resource(name string) *ResourceService {
	return &ResourceService{name: name, svc: c.provider}
}
