// Package crawl is the client for the analytics/crawl collaborator
// that supplies raw per-URL metrics. The pipeline only reads from it.
package crawl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rankforge/rankforge/internal/config"
)

// Client calls the analytics service's metrics endpoint.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client from configuration.
func NewClient(cfg *config.CrawlConfig) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)
	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount)
		client.SetRetryWaitTime(500 * time.Millisecond)
	}
	return &Client{http: client}
}

// metricsResponse mirrors the analytics service's payload.
type metricsResponse struct {
	URL     string             `json:"url"`
	Metrics map[string]float64 `json:"metrics"`
}

// PageMetrics fetches the named metric map for a URL.
func (c *Client) PageMetrics(ctx context.Context, url string) (map[string]float64, error) {
	var out metricsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("url", url).
		SetResult(&out).
		Get("/api/v1/metrics")
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("metrics request returned %s", resp.Status())
	}
	return out.Metrics, nil
}
