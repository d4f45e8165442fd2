// Package upstream talks to the remote grants data service. Every call is
// a single-shot request/response; callers fall back to the bundled
// dataset when a fetch fails, so failures here are never fatal.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a client against the given base URL. The transport
// mirrors the server fetcher defaults: bounded timeout, keep-alives on.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// FilterBody is the filter object the upstream endpoints accept.
type FilterBody struct {
	Ministry   string  `json:"ministry,omitempty"`
	FiscalYear string  `json:"fiscalYear,omitempty"`
	Search     string  `json:"search,omitempty"`
	MinAmount  float64 `json:"minAmount,omitempty"`
	MaxAmount  float64 `json:"maxAmount,omitempty"`
}

// FetchElements retrieves the dropdown option lists.
func (c *Client) FetchElements(ctx context.Context) (models.Elements, error) {
	var out models.Elements
	err := c.post(ctx, "/api/grants/elements", FilterBody{}, &out)
	return out, err
}

// FetchGrants retrieves grant records matching the filter.
func (c *Client) FetchGrants(ctx context.Context, filter FilterBody) ([]models.Grant, error) {
	var out struct {
		Grants []models.Grant `json:"grants"`
	}
	if err := c.post(ctx, "/api/grants", filter, &out); err != nil {
		return nil, err
	}
	return out.Grants, nil
}

// FetchTrends retrieves the per-year trend series for the filter.
func (c *Client) FetchTrends(ctx context.Context, filter FilterBody) ([]models.TrendPoint, error) {
	var out []models.TrendPoint
	err := c.post(ctx, "/api/grants/trends", filter, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
