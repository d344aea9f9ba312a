// Package climateweb is the HTTP client for the climate portal's daily
// data report pages.
package climateweb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client fetches daily-data pages. It implements pipeline.PageFetcher.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a portal client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchPage performs a single GET and returns the response body as text.
// Any non-200 status is an error; retry policy belongs to the caller.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch daily data page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daily data page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read daily data page: %w", err)
	}

	c.logger.Debug("page fetched",
		"url", url,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return string(body), nil
}
