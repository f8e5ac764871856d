// Package eastmoney talks to the Eastmoney quote APIs: daily kline history
// per instrument and the HTML quote board used to assemble the universe.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/httputil"
	"github.com/wonny/stockscan/pkg/logger"
)

// Client handles communication with Eastmoney. All Eastmoney calls go
// through this client so the rate limit applies everywhere.
type Client struct {
	httpClient    *httputil.Client
	logger        *logger.Logger
	baseURL       string
	quoteBoardURL string
}

// NewClient creates an Eastmoney client with the configured rate limit.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.NewWithTimeout(log, cfg.Eastmoney.RequestTimeout).
		WithRateLimit(cfg.Eastmoney.RatePerSecond)

	return &Client{
		httpClient:    httpClient,
		logger:        log,
		baseURL:       cfg.Eastmoney.BaseURL,
		quoteBoardURL: cfg.Eastmoney.QuoteBoardURL,
	}
}

// fetch performs a GET against the kline API host.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// fetchHTML performs a GET against the quote board host and returns the page.
func (c *Client) fetchHTML(ctx context.Context, params url.Values) (io.ReadCloser, error) {
	fullURL := c.quoteBoardURL
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
