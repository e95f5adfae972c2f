// Package sources provides a client for listing source endpoints that serve
// scraped lead records as JSON.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client fetches raw lead records from a listing source endpoint.
type Client interface {
	// Fetch retrieves all records the endpoint currently serves.
	Fetch(ctx context.Context, endpoint string) ([]Record, error)
}

// Record is a single scraped lead as it appears on the wire. Every field is
// optional; validation happens downstream.
type Record struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	Price           string `json:"price,omitempty"`
	Source          string `json:"source,omitempty"`
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second across all endpoints.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

type httpClient struct {
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient creates a sources client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http:    &http.Client{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Fetch(ctx context.Context, endpoint string) ([]Record, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "sources: rate limit wait")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: build request %s", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: fetch %s", endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read body %s", endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.New(fmt.Sprintf("sources: %s returned %d", endpoint, resp.StatusCode))
	}

	return parseRecords(body)
}

// parseRecords accepts either a bare JSON array of records or an object with
// a "records" array; both shapes occur in the wild across listing sources.
func parseRecords(body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, eris.Wrap(err, "sources: decode records")
	}
	return wrapped.Records, nil
}
