package provider

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/canopy-data/canopy/internal/alloc"
	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
	"github.com/canopy-data/canopy/internal/engine"
)

// --- Mocks ---

// mockRepo keeps records in a map and counts calls; it stands in for
// the tree-backed repository.
type mockRepo struct {
	mu       sync.Mutex
	records  map[string]domain.Record
	missing  bool
	fetchErr error
	watched  []string
	stopped  bool
}

func newMockRepo(records ...domain.Record) *mockRepo {
	m := &mockRepo{records: make(map[string]domain.Record)}
	for _, rec := range records {
		m.records[rec.ID("id")] = rec
	}
	return m
}

func (m *mockRepo) FetchCollection(_ context.Context, resource string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if m.missing {
		return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, resource)
	}
	out := make([]domain.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockRepo) FetchOne(_ context.Context, _, id string) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return rec, nil
}

func (m *mockRepo) Create(_ context.Context, _, id string, fields domain.Record) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := fields.Clone()
	rec["id"] = id
	m.records[id] = rec
	m.missing = false
	return rec, nil
}

func (m *mockRepo) Update(_ context.Context, _, id string, partial domain.Record) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	for k, v := range partial {
		rec[k] = v
	}
	return rec, nil
}

func (m *mockRepo) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockRepo) Watch(_ context.Context, resource string, _ func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched = append(m.watched, resource)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.stopped = true
	}, nil
}

func newService(repo Repository) *Service {
	allocate, _ := alloc.New(alloc.StrategyMaxPlusOne, "id")
	return New(repo, engine.New("id"), allocate, nil)
}

func listQuery(t *testing.T, filters []query.Clause) query.Query {
	t.Helper()
	q, err := query.New(filters, nil, query.Page{})
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

// --- Tests ---

func TestGetList(t *testing.T) {
	repo := newMockRepo(
		domain.Record{"id": "1", "age": 20.0},
		domain.Record{"id": "2", "age": 30.0},
		domain.Record{"id": "3", "age": 25.0},
	)
	svc := newService(repo)

	gte, err := query.NewComparison("age", query.OpGte, 22.0)
	if err != nil {
		t.Fatalf("NewComparison: %v", err)
	}

	res, err := svc.GetList(context.Background(), "users", listQuery(t, []query.Clause{gte}))
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
}

func TestGetList_MissingResource(t *testing.T) {
	repo := newMockRepo()
	repo.missing = true
	svc := newService(repo)

	_, err := svc.GetList(context.Background(), "ghosts", listQuery(t, nil))
	if !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("err = %v, want ErrResourceNotFound", err)
	}
}

func TestGetMany_SkipsMissingIDs(t *testing.T) {
	repo := newMockRepo(
		domain.Record{"id": "1", "title": "a"},
		domain.Record{"id": "3", "title": "c"},
	)
	svc := newService(repo)

	records, err := svc.GetMany(context.Background(), "posts", []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}
}

func TestCreate_AllocatesMaxPlusOne(t *testing.T) {
	repo := newMockRepo(
		domain.Record{"id": "1", "title": "a"},
		domain.Record{"id": "5", "title": "b"},
	)
	svc := newService(repo)

	rec, err := svc.Create(context.Background(), "posts", domain.Record{"title": "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID("id") != "6" {
		t.Errorf("id = %q, want 6", rec.ID("id"))
	}
}

func TestCreate_EmptyResourceStartsAtOne(t *testing.T) {
	repo := newMockRepo()
	repo.missing = true
	svc := newService(repo)

	rec, err := svc.Create(context.Background(), "posts", domain.Record{"title": "first"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID("id") != "1" {
		t.Errorf("id = %q, want 1", rec.ID("id"))
	}
}

func TestCreate_ConcurrentIDsStayUnique(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Create(context.Background(), "posts", domain.Record{"title": "x"})
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			ids <- rec.ID("id")
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestCreateMany(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo)

	records, err := svc.CreateMany(context.Background(), "posts", []domain.Record{
		{"title": "a"}, {"title": "b"},
	})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if got := []string{records[0].ID("id"), records[1].ID("id")}; !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("ids = %v, want [1 2]", got)
	}
}

func TestUpdateMany(t *testing.T) {
	repo := newMockRepo(
		domain.Record{"id": "1", "status": "draft"},
		domain.Record{"id": "2", "status": "draft"},
	)
	svc := newService(repo)

	updated, err := svc.UpdateMany(context.Background(), "posts", []string{"1", "2"},
		domain.Record{"status": "published"})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if len(updated) != 2 {
		t.Errorf("updated = %v, want both ids", updated)
	}
	rec, _ := svc.GetOne(context.Background(), "posts", "1")
	if rec["status"] != "published" {
		t.Errorf("status = %v, want published", rec["status"])
	}
}

func TestUpdateMany_FailsLoudlyOnMissing(t *testing.T) {
	repo := newMockRepo(domain.Record{"id": "1"})
	svc := newService(repo)

	_, err := svc.UpdateMany(context.Background(), "posts", []string{"1", "404"}, domain.Record{"x": 1})
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteMany(t *testing.T) {
	repo := newMockRepo(
		domain.Record{"id": "1"},
		domain.Record{"id": "2"},
	)
	svc := newService(repo)

	deleted, err := svc.DeleteMany(context.Background(), "posts", []string{"1", "2"})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if !reflect.DeepEqual(deleted, []string{"1", "2"}) {
		t.Errorf("deleted = %v", deleted)
	}
	if _, err := svc.GetOne(context.Background(), "posts", "1"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSubscribe(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo)

	stop, err := svc.Subscribe(context.Background(), "posts", func() {})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !reflect.DeepEqual(repo.watched, []string{"posts"}) {
		t.Errorf("watched = %v", repo.watched)
	}

	stop()
	if !repo.stopped {
		t.Error("stop must cancel the underlying watch")
	}
}
