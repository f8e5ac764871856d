// Package sina fetches the exchange trading-date calendar.
package sina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/httputil"
	"github.com/wonny/stockscan/pkg/logger"
)

// Client fetches the trading-date list. It implements calendar.DateSource.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a calendar client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(log),
		logger:     log,
		url:        cfg.Sina.CalendarURL,
	}
}

// calendarResponse accepts both a bare JSON array of dates and the
// wrapped {"data": [...]} form.
type calendarResponse struct {
	Data []string `json:"data"`
}

// TradingDates returns every known trading date, ascending.
func (c *Client) TradingDates(ctx context.Context) ([]time.Time, error) {
	resp, err := c.httpClient.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar response: %w", err)
	}

	raw, err := decodeDates(body)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.logger.WithField("value", s).Warn("Skipping unparseable calendar date")
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("calendar response contained no usable dates")
	}

	c.logger.WithField("count", len(dates)).Debug("Fetched trading calendar")
	return dates, nil
}

func decodeDates(body []byte) ([]string, error) {
	var bare []string
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped calendarResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode calendar response: %w", err)
	}
	return wrapped.Data, nil
}
