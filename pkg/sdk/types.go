package sdk

// Record is one record as returned by the API: a JSON object keyed by
// field name.
type Record map[string]any

// Filter is one filter clause on the wire: a comparison over a dotted
// field path, or an OR group of child filters.
type Filter struct {
	Field string   `json:"field,omitempty"`
	Op    string   `json:"op,omitempty"` // eq (default), ne, lt, gt, lte, gte, null, nnull, in, nin
	Value any      `json:"value,omitempty"`
	Or    []Filter `json:"or,omitempty"`
}

// Query describes one list request. Zero page values take the server
// defaults (page 1, 10 per page).
type Query struct {
	Filters []Filter
	Sort    string
	Order   string // "asc" (default) or "desc"
	Page    int
	PerPage int
}

// Page is one page of records plus the total match count before
// pagination.
type Page struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
