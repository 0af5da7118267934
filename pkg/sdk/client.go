package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a canopy server over its REST API.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	obs           *observer
	onStreamClose func(resource string, err error)
}

// New creates an API client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("sdk: base URL required")
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        cfg.apiKey,
		httpClient:    hc,
		obs:           obs,
		onStreamClose: cfg.onStreamClose,
	}, nil
}

// streamClosed reports an event stream that ended on its own. Stops
// requested by the caller never reach here.
func (c *Client) streamClosed(resource string, err error) {
	if err == nil {
		err = fmt.Errorf("sdk: event stream for %s closed by server", resource)
	}
	if c.onStreamClose != nil {
		c.onStreamClose(resource, err)
		return
	}
	if c.obs != nil && c.obs.logger != nil {
		c.obs.logger.Warn("event stream closed", "resource", resource, "error", err)
	}
}

// Resource returns the API handle for one resource collection.
func (c *Client) Resource(name string) *Resource {
	return &Resource{name: name, client: c}
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	var status HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &status)
	c.obs.observe("health", start, err)
	if err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}

// do issues one API request. A non-2xx response decodes into *APIError.
func (c *Client) do(
	ctx context.Context, method, path string, params url.Values, body, out any,
) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sdk: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("sdk: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sdk: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
		apiErr.Code = "unknown"
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
