package sdk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Resource is the API handle for one resource collection.
type Resource struct {
	name   string
	client *Client
}

func (r *Resource) path() string { return "/api/v1/" + url.PathEscape(r.name) }

func (r *Resource) itemPath(id string) string { return r.path() + "/" + url.PathEscape(id) }

// List runs a list query and returns one page of records plus the total
// match count before pagination.
func (r *Resource) List(ctx context.Context, q Query) (Page, error) {
	start := time.Now()
	page, err := r.list(ctx, q)
	r.client.obs.observe("list", start, err)
	return page, err
}

func (r *Resource) list(ctx context.Context, q Query) (Page, error) {
	params := url.Values{}
	if len(q.Filters) > 0 {
		data, err := json.Marshal(q.Filters)
		if err != nil {
			return Page{}, fmt.Errorf("sdk: encode filter: %w", err)
		}
		params.Set("filter", string(data))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}

	var page Page
	if err := r.client.do(ctx, http.MethodGet, r.path(), params, nil, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// Get returns a single record by id.
func (r *Resource) Get(ctx context.Context, id string) (Record, error) {
	start := time.Now()
	var rec Record
	err := r.client.do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &rec)
	r.client.obs.observe("get", start, err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetMany returns the records for the given ids. Missing ids are
// skipped rather than failing the whole batch.
func (r *Resource) GetMany(ctx context.Context, ids []string) ([]Record, error) {
	start := time.Now()
	params := url.Values{"id": ids}
	var page Page
	err := r.client.do(ctx, http.MethodGet, r.path(), params, nil, &page)
	r.client.obs.observe("get_many", start, err)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Create writes a new record and returns it with its allocated id.
func (r *Resource) Create(ctx context.Context, fields Record) (Record, error) {
	start := time.Now()
	var rec Record
	err := r.client.do(ctx, http.MethodPost, r.path(), nil, fields, &rec)
	r.client.obs.observe("create", start, err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update merges partial fields into a record and returns the result.
func (r *Resource) Update(ctx context.Context, id string, partial Record) (Record, error) {
	start := time.Now()
	var rec Record
	err := r.client.do(ctx, http.MethodPatch, r.itemPath(id), nil, partial, &rec)
	r.client.obs.observe("update", start, err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record by id.
func (r *Resource) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
	r.client.obs.observe("delete", start, err)
	return err
}

// Subscribe opens the resource's SSE change stream and invokes onChange
// for every change event until the context is canceled or the returned
// stop function is called. Events carry no change classification;
// subscribers re-query.
func (r *Resource) Subscribe(ctx context.Context, onChange func()) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.client.baseURL+r.path()+"/events", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sdk: build subscribe request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if r.client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.client.apiKey)
	}

	// The stream is long-lived; the per-request timeout must not apply.
	streamClient := &http.Client{Transport: r.client.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sdk: subscribe %s: %w", r.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		cancel()
		err := decodeAPIError(resp)
		_ = resp.Body.Close()
		return nil, err
	}

	go func() {
		defer func() { _ = resp.Body.Close() }()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.HasPrefix(scanner.Text(), "event: change") {
				onChange()
			}
		}
		if ctx.Err() != nil {
			return
		}
		r.client.streamClosed(r.name, scanner.Err())
	}()

	return cancel, nil
}
