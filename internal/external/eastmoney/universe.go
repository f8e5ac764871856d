package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/stockscan/internal/contracts"
)

// Universe scrapes the quote board and returns the analyzable universe:
// main, SME and GEM boards, excluding ST and delisting names.
func (c *Client) Universe(ctx context.Context) ([]contracts.Instrument, error) {
	params := url.Values{}
	params.Set("t", "stock_list")

	body, err := c.fetchHTML(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("quote board request failed: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote board HTML: %w", err)
	}

	universe := parseUniverse(doc)
	c.logger.WithField("count", len(universe)).Info("Fetched instrument universe")
	return universe, nil
}

// parseUniverse walks the quote board table. Expected row shape:
// <tr><td>code</td><td>name</td>...</tr>
func parseUniverse(doc *goquery.Document) []contracts.Instrument {
	var universe []contracts.Instrument
	seen := make(map[string]bool)

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		code := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())

		if !analyzableCode(code) || excludedName(name) || seen[code] {
			return
		}
		seen[code] = true
		universe = append(universe, contracts.Instrument{Code: code, Name: name})
	})

	return universe
}

// analyzableCode keeps main board (60, 00) and GEM (30) listings.
func analyzableCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.HasPrefix(code, "60") ||
		strings.HasPrefix(code, "00") ||
		strings.HasPrefix(code, "30")
}

// excludedName drops ST, *ST and delisting names.
func excludedName(name string) bool {
	return strings.Contains(name, "ST") || strings.Contains(name, "退")
}
