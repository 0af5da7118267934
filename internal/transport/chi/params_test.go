package chi

import (
	"net/url"
	"testing"

	"github.com/canopy-data/canopy/internal/domain/query"
)

func TestQueryFromParams_Defaults(t *testing.T) {
	q, err := queryFromParams(url.Values{})
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}

	if len(q.Filters()) != 0 || len(q.Sorts()) != 0 {
		t.Errorf("expected empty filters and sorts")
	}
	if q.Page().Current() != query.DefaultPage || q.Page().Size() != query.DefaultPageSize {
		t.Errorf("page = %d/%d, want defaults", q.Page().Current(), q.Page().Size())
	}
}

func TestQueryFromParams_FilterArray(t *testing.T) {
	params := url.Values{}
	params.Set("filter", `[{"field":"age","op":"gte","value":22},{"field":"name","value":"ann"}]`)

	q, err := queryFromParams(params)
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}

	if len(q.Filters()) != 2 {
		t.Fatalf("filters = %d, want 2", len(q.Filters()))
	}
	first := q.Filters()[0].Comparison()
	if first.Field() != "age" || first.Op() != query.OpGte {
		t.Errorf("first = %s %s, want age gte", first.Field(), first.Op())
	}
	second := q.Filters()[1].Comparison()
	if second.Op() != query.OpEq {
		t.Errorf("omitted op = %s, want eq", second.Op())
	}
}

func TestQueryFromParams_FilterOrGroup(t *testing.T) {
	params := url.Values{}
	params.Set("filter", `[{"or":[{"field":"age","op":"lt","value":21},{"field":"age","op":"gt","value":28}]}]`)

	q, err := queryFromParams(params)
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}

	if len(q.Filters()) != 1 || !q.Filters()[0].IsOr() {
		t.Fatalf("expected a single OR clause")
	}
	if len(q.Filters()[0].Children()) != 2 {
		t.Errorf("children = %d, want 2", len(q.Filters()[0].Children()))
	}
}

func TestQueryFromParams_FilterShorthand(t *testing.T) {
	params := url.Values{}
	params.Set("filter", `{"status":"active","kind":"post"}`)

	q, err := queryFromParams(params)
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}

	if len(q.Filters()) != 2 {
		t.Fatalf("filters = %d, want 2", len(q.Filters()))
	}
	// Shorthand keys are applied in sorted order.
	if q.Filters()[0].Comparison().Field() != "kind" {
		t.Errorf("first field = %s, want kind", q.Filters()[0].Comparison().Field())
	}
}

func TestQueryFromParams_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{"malformed filter", url.Values{"filter": {"not-json"}}},
		{"filter missing field", url.Values{"filter": {`[{"op":"eq","value":1}]`}}},
		{"bad page", url.Values{"page": {"abc"}}},
		{"negative page", url.Values{"page": {"-1"}}},
		{"bad per_page", url.Values{"per_page": {"x"}}},
		{"bad order", url.Values{"sort": {"age"}, "order": {"sideways"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := queryFromParams(tc.params); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestQueryFromParams_SortAndPage(t *testing.T) {
	params := url.Values{}
	params.Set("sort", "meta.rank")
	params.Set("order", "desc")
	params.Set("page", "3")
	params.Set("per_page", "25")

	q, err := queryFromParams(params)
	if err != nil {
		t.Fatalf("queryFromParams: %v", err)
	}

	if len(q.Sorts()) != 1 {
		t.Fatalf("sorts = %d, want 1", len(q.Sorts()))
	}
	s := q.Sorts()[0]
	if s.Field() != "meta.rank" || s.Direction() != query.Desc {
		t.Errorf("sort = %s %s, want meta.rank desc", s.Field(), s.Direction())
	}
	if q.Page().Current() != 3 || q.Page().Size() != 25 {
		t.Errorf("page = %d/%d, want 3/25", q.Page().Current(), q.Page().Size())
	}
}
