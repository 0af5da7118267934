package engine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
)

func mustClause(t *testing.T, field string, op query.Operator, value any) query.Clause {
	t.Helper()
	c, err := query.NewComparison(field, op, value)
	if err != nil {
		t.Fatalf("NewComparison: %v", err)
	}
	return c
}

func mustOr(t *testing.T, children ...query.Clause) query.Clause {
	t.Helper()
	c, err := query.NewOr(children)
	if err != nil {
		t.Fatalf("NewOr: %v", err)
	}
	return c
}

func mustQuery(t *testing.T, filters []query.Clause, sorts []query.Sort, current, size int) query.Query {
	t.Helper()
	page, err := query.NewPage(current, size)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	q, err := query.New(filters, sorts, page)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func mustSort(t *testing.T, field string, dir query.Direction) query.Sort {
	t.Helper()
	s, err := query.NewSort(field, dir)
	if err != nil {
		t.Fatalf("NewSort: %v", err)
	}
	return s
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID("id")
	}
	return out
}

func ageRecords() []domain.Record {
	return []domain.Record{
		{"id": 1.0, "age": 20.0},
		{"id": 2.0, "age": 30.0},
		{"id": 3.0, "age": 25.0},
	}
}

// Scenario: age gte 22, sorted by age ascending, default page.
func TestRun_FilterSortPaginate(t *testing.T) {
	e := New("id")
	q := mustQuery(t,
		[]query.Clause{mustClause(t, "age", query.OpGte, 22.0)},
		[]query.Sort{mustSort(t, "age", query.Asc)},
		1, 10,
	)

	res := e.Run(ageRecords(), q)

	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}
	if got, want := ids(res.Records), []string{"3", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// Scenario: or(age lt 21, age gt 28) matches the two outliers.
func TestRun_OrGroup(t *testing.T) {
	e := New("id")
	or := mustOr(t,
		mustClause(t, "age", query.OpLt, 21.0),
		mustClause(t, "age", query.OpGt, 28.0),
	)
	q := mustQuery(t, []query.Clause{or}, nil, 1, 10)

	res := e.Run(ageRecords(), q)

	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}
	if got, want := ids(res.Records), []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// A record matching several OR branches appears once in the union.
func TestRun_OrUnionDeduplicates(t *testing.T) {
	e := New("id")
	or := mustOr(t,
		mustClause(t, "age", query.OpGte, 20.0),
		mustClause(t, "age", query.OpLte, 30.0),
	)
	q := mustQuery(t, []query.Clause{or}, nil, 1, 10)

	res := e.Run(ageRecords(), q)

	if res.Total != 3 {
		t.Fatalf("Total = %d, want 3", res.Total)
	}
}

// OR children evaluate against the set already narrowed by preceding
// AND clauses, not the original collection.
func TestRun_OrSeesNarrowedCandidates(t *testing.T) {
	e := New("id")
	filters := []query.Clause{
		mustClause(t, "age", query.OpGt, 21.0), // drops id 1
		mustOr(t,
			mustClause(t, "age", query.OpLt, 26.0), // id 3 only (id 1 already gone)
			mustClause(t, "age", query.OpGt, 28.0), // id 2
		),
	}
	q := mustQuery(t, filters, nil, 1, 10)

	res := e.Run(ageRecords(), q)

	if got, want := ids(res.Records), []string{"3", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// Sequential AND: [C1, C2] equals C2 applied to the output of C1.
func TestRun_SequentialAndComposes(t *testing.T) {
	e := New("id")
	c1 := mustClause(t, "age", query.OpGte, 22.0)
	c2 := mustClause(t, "age", query.OpLt, 28.0)

	both := e.Run(ageRecords(), mustQuery(t, []query.Clause{c1, c2}, nil, 1, 10))

	first := e.Run(ageRecords(), mustQuery(t, []query.Clause{c1}, nil, 1, 10))
	chained := e.Run(first.Records, mustQuery(t, []query.Clause{c2}, nil, 1, 10))

	if !reflect.DeepEqual(ids(both.Records), ids(chained.Records)) {
		t.Errorf("sequential AND mismatch: %v vs %v", ids(both.Records), ids(chained.Records))
	}
}

// Scenario: 25 records, page 3 of size 10 -> 5 records, total 25.
func TestRun_PaginationClipsFinalPage(t *testing.T) {
	e := New("id")
	records := make([]domain.Record, 25)
	for i := range records {
		records[i] = domain.Record{"id": float64(i + 1)}
	}
	q := mustQuery(t, nil, nil, 3, 10)

	res := e.Run(records, q)

	if res.Total != 25 {
		t.Errorf("Total = %d, want 25", res.Total)
	}
	if len(res.Records) != 5 {
		t.Errorf("page size = %d, want 5", len(res.Records))
	}
}

func TestRun_PaginationSizeLaw(t *testing.T) {
	e := New("id")
	const n, size = 23, 7

	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{"id": float64(i + 1)}
	}

	var concatenated []string
	for page := 1; page <= 4; page++ {
		res := e.Run(records, mustQuery(t, nil, nil, page, size))

		want := n - (page-1)*size
		if want > size {
			want = size
		}
		if want < 0 {
			want = 0
		}
		if len(res.Records) != want {
			t.Errorf("page %d: size = %d, want %d", page, len(res.Records), want)
		}
		concatenated = append(concatenated, ids(res.Records)...)
	}

	if !reflect.DeepEqual(concatenated, ids(records)) {
		t.Error("concatenated pages must reconstruct the full set")
	}
}

func TestRun_PageBeyondEndIsEmpty(t *testing.T) {
	e := New("id")
	res := e.Run(ageRecords(), mustQuery(t, nil, nil, 9, 10))

	if len(res.Records) != 0 {
		t.Errorf("records = %d, want 0", len(res.Records))
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
}

func TestRun_EmptyMatchIsNotAnError(t *testing.T) {
	e := New("id")
	q := mustQuery(t, []query.Clause{mustClause(t, "age", query.OpGt, 99.0)}, nil, 1, 10)

	res := e.Run(ageRecords(), q)

	if res.Total != 0 || len(res.Records) != 0 {
		t.Errorf("got total %d, %d records; want empty result", res.Total, len(res.Records))
	}
}

func TestRun_SortDescendingReversesAscending(t *testing.T) {
	e := New("id")
	q := mustQuery(t, nil, []query.Sort{mustSort(t, "age", query.Desc)}, 1, 10)

	res := e.Run(ageRecords(), q)

	if got, want := ids(res.Records), []string{"2", "3", "1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// Only the first sort key is honored; extra keys change nothing.
func TestRun_OnlyFirstSortKeyApplies(t *testing.T) {
	e := New("id")
	records := []domain.Record{
		{"id": 1.0, "group": "a", "rank": 2.0},
		{"id": 2.0, "group": "a", "rank": 1.0},
		{"id": 3.0, "group": "b", "rank": 9.0},
	}

	single := e.Run(records, mustQuery(t, nil,
		[]query.Sort{mustSort(t, "group", query.Asc)}, 1, 10))
	double := e.Run(records, mustQuery(t, nil,
		[]query.Sort{mustSort(t, "group", query.Asc), mustSort(t, "rank", query.Asc)}, 1, 10))

	if !reflect.DeepEqual(ids(single.Records), ids(double.Records)) {
		t.Errorf("second sort key must be ignored: %v vs %v",
			ids(single.Records), ids(double.Records))
	}
}

func TestRun_SortByNestedPath(t *testing.T) {
	e := New("id")
	records := []domain.Record{
		{"id": 1.0, "meta": map[string]any{"rank": 3.0}},
		{"id": 2.0, "meta": map[string]any{"rank": 1.0}},
		{"id": 3.0, "meta": map[string]any{"rank": 2.0}},
	}
	q := mustQuery(t, nil, []query.Sort{mustSort(t, "meta.rank", query.Asc)}, 1, 10)

	res := e.Run(records, q)

	if got, want := ids(res.Records), []string{"2", "3", "1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// The engine is pure: identical inputs give identical outputs and the
// input slice order is not observable across runs.
func TestRun_Idempotent(t *testing.T) {
	e := New("id")
	q := mustQuery(t,
		[]query.Clause{mustClause(t, "age", query.OpGte, 22.0)},
		[]query.Sort{mustSort(t, "age", query.Desc)},
		1, 2,
	)

	first := e.Run(ageRecords(), q)
	second := e.Run(ageRecords(), q)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ: %v vs %v", first, second)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	e := New("id")
	records := ageRecords()
	q := mustQuery(t, nil, []query.Sort{mustSort(t, "age", query.Desc)}, 1, 10)

	e.Run(records, q)

	if got, want := ids(records), []string{"1", "2", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("input order changed: %v, want %v", got, want)
	}
}

func BenchmarkRun(b *testing.B) {
	e := New("id")
	records := make([]domain.Record, 1000)
	for i := range records {
		records[i] = domain.Record{"id": float64(i), "age": float64(i % 80)}
	}
	gte, _ := query.NewComparison("age", query.OpGte, 21.0)
	srt, _ := query.NewSort("age", query.Asc)
	page, _ := query.NewPage(2, 25)
	q, _ := query.New([]query.Clause{gte}, []query.Sort{srt}, page)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Run(records, q)
	}
}

func ExampleEngine_Run() {
	e := New("id")
	records := []domain.Record{
		{"id": 1.0, "age": 20.0},
		{"id": 2.0, "age": 30.0},
		{"id": 3.0, "age": 25.0},
	}
	gte, _ := query.NewComparison("age", query.OpGte, 22.0)
	srt, _ := query.NewSort("age", query.Asc)
	q, _ := query.New([]query.Clause{gte}, []query.Sort{srt}, query.Page{})

	res := e.Run(records, q)
	fmt.Println(res.Total, res.Records[0]["id"], res.Records[1]["id"])
	// Output: 2 3 2
}
