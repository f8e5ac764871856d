package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
)

// klineResponse mirrors the push2his kline payload. Each kline entry is a
// comma-joined string: date,open,close,high,low,volume,amount,...
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// DailyBars fetches forward-adjusted daily klines from start to today.
func (c *Client) DailyBars(ctx context.Context, inst contracts.Instrument, start time.Time) (*contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("secid", secID(inst.Code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	params.Set("klt", "101") // daily
	params.Set("fqt", "1")   // forward adjusted
	params.Set("beg", start.Format("20060102"))
	params.Set("end", "20500101")

	body, err := c.fetch(ctx, "/api/qt/stock/kline/get", params)
	if err != nil {
		return nil, fmt.Errorf("kline request for %s failed: %w", inst.Code, err)
	}

	var decoded klineResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode kline response for %s: %w", inst.Code, err)
	}
	if decoded.Data == nil {
		return &contracts.TimeSeries{Instrument: inst}, nil
	}

	bars := make([]contracts.Bar, 0, len(decoded.Data.Klines))
	for _, line := range decoded.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, fmt.Errorf("malformed kline for %s: %w", inst.Code, err)
		}
		bars = append(bars, bar)
	}

	series := &contracts.TimeSeries{Instrument: inst, Bars: bars}
	if inst.Name == "" && decoded.Data.Name != "" {
		series.Instrument.Name = decoded.Data.Name
	}
	return series, nil
}

// parseKline decodes one comma-joined kline entry.
func parseKline(line string) (contracts.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 7 {
		return contracts.Bar{}, fmt.Errorf("expected at least 7 fields, got %d", len(parts))
	}

	date, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("invalid date %q: %w", parts[0], err)
	}

	values := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("invalid numeric field %q: %w", parts[i+1], err)
		}
		values[i] = v
	}

	// Upstream order is open,close,high,low,volume,amount.
	return contracts.Bar{
		Date:   date,
		Open:   values[0],
		Close:  values[1],
		High:   values[2],
		Low:    values[3],
		Volume: values[4],
		Amount: values[5],
	}, nil
}

// secID maps a stock code to the exchange-prefixed id the API expects:
// 1 for Shanghai, 0 for Shenzhen.
func secID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}
