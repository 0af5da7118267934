// Package provider exposes the uniform data-provider contract: list
// with filter/sort/pagination, get-one, get-many, create, update,
// delete (single and many variants), and subscribe. Every operation is
// a thin wrapper over the repository; the only logic lives in the
// query engine it delegates to.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/canopy-data/canopy/internal/alloc"
	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
	"github.com/canopy-data/canopy/internal/metrics"
)

// ListResult is one page of records plus the total match count.
type ListResult struct {
	Records []domain.Record
	Total   int
}

// Service implements the data-provider operations for all resources.
type Service struct {
	repo     Repository
	engine   QueryEngine
	allocate alloc.Func
	logger   *zap.Logger

	// createMu serializes creates per resource: the default
	// max-plus-one allocator is a read-modify-write and concurrent
	// creates would mint duplicate ids.
	createMu sync.Map // resource -> *sync.Mutex
}

// New creates a provider service.
func New(repo Repository, eng QueryEngine, allocate alloc.Func, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		engine:   eng,
		allocate: allocate,
		logger:   logger,
	}
}

// GetList fetches the whole resource collection and runs the query
// engine over it. A missing resource is an error; a query matching
// zero records is not.
func (s *Service) GetList(ctx context.Context, resource string, q query.Query) (ListResult, error) {
	records, err := s.repo.FetchCollection(ctx, resource)
	if err != nil {
		return ListResult{}, fmt.Errorf("fetch collection: %w", err)
	}

	start := time.Now()
	res := s.engine.Run(records, q)

	metrics.QueriesTotal.WithLabelValues(resource).Inc()
	metrics.QueryDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
	metrics.QueryMatchedRecords.WithLabelValues(resource).Observe(float64(res.Total))

	s.logger.Debug("list query evaluated",
		zap.String("resource", resource),
		zap.Int("candidates", len(records)),
		zap.Int("total", res.Total),
		zap.Int("page_size", len(res.Records)),
	)
	return ListResult{Records: res.Records, Total: res.Total}, nil
}

// GetOne returns a single record by id.
func (s *Service) GetOne(ctx context.Context, resource, id string) (domain.Record, error) {
	rec, err := s.repo.FetchOne(ctx, resource, id)
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}
	return rec, nil
}

// GetMany returns the records for the given ids. Missing ids are
// skipped rather than failing the whole batch.
func (s *Service) GetMany(ctx context.Context, resource string, ids []string) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.repo.FetchOne(ctx, resource, id)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("fetch one %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Create allocates an id for the record and writes it. Creates within
// one resource are serialized so the allocator's snapshot stays valid.
func (s *Service) Create(ctx context.Context, resource string, fields domain.Record) (domain.Record, error) {
	mu := s.resourceLock(resource)
	mu.Lock()
	defer mu.Unlock()

	records, err := s.repo.FetchCollection(ctx, resource)
	if err != nil && !errors.Is(err, domain.ErrResourceNotFound) {
		return nil, fmt.Errorf("fetch collection: %w", err)
	}

	id, err := s.allocate(ctx, resource, records)
	if err != nil {
		return nil, fmt.Errorf("allocate id: %w", err)
	}

	rec, err := s.repo.Create(ctx, resource, id, fields)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", id, err)
	}
	s.logger.Debug("record created", zap.String("resource", resource), zap.String("id", id))
	return rec, nil
}

// CreateMany creates each record in order and returns them with their
// allocated ids.
func (s *Service) CreateMany(
	ctx context.Context, resource string, items []domain.Record,
) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(items))
	for _, fields := range items {
		rec, err := s.Create(ctx, resource, fields)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Update merges partial fields into a record and returns the result.
func (s *Service) Update(
	ctx context.Context, resource, id string, partial domain.Record,
) (domain.Record, error) {
	rec, err := s.repo.Update(ctx, resource, id, partial)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return rec, nil
}

// UpdateMany applies the same partial fields to every id and returns
// the ids updated.
func (s *Service) UpdateMany(
	ctx context.Context, resource string, ids []string, partial domain.Record,
) ([]string, error) {
	updated := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := s.repo.Update(ctx, resource, id, partial); err != nil {
			return nil, fmt.Errorf("update %s: %w", id, err)
		}
		updated = append(updated, id)
	}
	return updated, nil
}

// Delete removes a record by id.
func (s *Service) Delete(ctx context.Context, resource, id string) error {
	if err := s.repo.Delete(ctx, resource, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// DeleteMany removes every id and returns the ids deleted.
func (s *Service) DeleteMany(ctx context.Context, resource string, ids []string) ([]string, error) {
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := s.repo.Delete(ctx, resource, id); err != nil {
			return nil, fmt.Errorf("delete %s: %w", id, err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// Subscribe invokes onChange after any mutation under the resource.
// The notification carries no change classification; subscribers
// re-query. The returned stop function cancels the subscription.
func (s *Service) Subscribe(ctx context.Context, resource string, onChange func()) (func(), error) {
	stop, err := s.repo.Watch(ctx, resource, onChange)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", resource, err)
	}

	gauge := metrics.SubscriptionsActive.WithLabelValues(resource)
	gauge.Inc()
	var once sync.Once
	return func() {
		once.Do(gauge.Dec)
		stop()
	}, nil
}

func (s *Service) resourceLock(resource string) *sync.Mutex {
	mu, _ := s.createMu.LoadOrStore(resource, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
