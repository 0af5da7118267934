package chi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/canopy-data/canopy/internal/domain/query"
)

// filterNode is the wire shape of one filter clause. A node is either a
// comparison (field/op/value) or an OR group of child nodes.
type filterNode struct {
	Field string       `json:"field"`
	Op    string       `json:"op"`
	Value any          `json:"value"`
	Or    []filterNode `json:"or"`
}

// queryFromParams builds a query descriptor from list query parameters:
// filter (JSON), sort, order, page, per_page.
func queryFromParams(params url.Values) (query.Query, error) {
	filters, err := parseFilter(params.Get("filter"))
	if err != nil {
		return query.Query{}, err
	}

	var sorts []query.Sort
	if field := params.Get("sort"); field != "" {
		s, err := query.NewSort(field, query.Direction(params.Get("order")))
		if err != nil {
			return query.Query{}, fmt.Errorf("parse sort: %w", err)
		}
		sorts = append(sorts, s)
	}

	page, err := parsePage(params.Get("page"), params.Get("per_page"))
	if err != nil {
		return query.Query{}, err
	}

	q, err := query.New(filters, sorts, page)
	if err != nil {
		return query.Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}

// parseFilter accepts either a JSON array of filter nodes or a plain
// object shorthand where every key/value pair is an equality clause.
func parseFilter(raw string) ([]query.Clause, error) {
	if raw == "" {
		return nil, nil
	}

	var nodes []filterNode
	if err := json.Unmarshal([]byte(raw), &nodes); err == nil {
		return clausesFromNodes(nodes)
	}

	var shorthand map[string]any
	if err := json.Unmarshal([]byte(raw), &shorthand); err != nil {
		return nil, fmt.Errorf("parse filter: expected a JSON array or object")
	}

	// Map iteration order is random; sort keys so clause application
	// order stays deterministic.
	keys := make([]string, 0, len(shorthand))
	for k := range shorthand {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]query.Clause, 0, len(keys))
	for _, k := range keys {
		c, err := query.NewComparison(k, query.OpEq, shorthand[k])
		if err != nil {
			return nil, fmt.Errorf("parse filter %q: %w", k, err)
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func clausesFromNodes(nodes []filterNode) ([]query.Clause, error) {
	clauses := make([]query.Clause, 0, len(nodes))
	for _, n := range nodes {
		c, err := clauseFromNode(n)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func clauseFromNode(n filterNode) (query.Clause, error) {
	if len(n.Or) > 0 {
		children, err := clausesFromNodes(n.Or)
		if err != nil {
			return query.Clause{}, err
		}
		c, err := query.NewOr(children)
		if err != nil {
			return query.Clause{}, fmt.Errorf("parse filter: %w", err)
		}
		return c, nil
	}

	op := query.Operator(n.Op)
	if op == "" {
		op = query.OpEq
	}
	c, err := query.NewComparison(n.Field, op, n.Value)
	if err != nil {
		return query.Clause{}, fmt.Errorf("parse filter: %w", err)
	}
	return c, nil
}

func parsePage(pageRaw, sizeRaw string) (query.Page, error) {
	var current, size int
	var err error

	if pageRaw != "" {
		current, err = strconv.Atoi(pageRaw)
		if err != nil {
			return query.Page{}, fmt.Errorf("parse page: %q is not a number", pageRaw)
		}
	}
	if sizeRaw != "" {
		size, err = strconv.Atoi(sizeRaw)
		if err != nil {
			return query.Page{}, fmt.Errorf("parse per_page: %q is not a number", sizeRaw)
		}
	}

	p, err := query.NewPage(current, size)
	if err != nil {
		return query.Page{}, fmt.Errorf("parse pagination: %w", err)
	}
	return p, nil
}
