// Package markets implements prediction-market and equity price tools:
// Polymarket and Manifold market search, and stock quotes, each with a
// historical variant that can be capped at a retrodict cutoff. Live-price
// tools are unavailable once a retrodict cutoff is active in context; the
// corresponding history tools remain available with their query window
// clamped to the cutoff.
package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/retry"
)

const (
	polymarketGammaAPI = "https://gamma-api.polymarket.com"
	manifoldAPI        = "https://api.manifold.markets/v0"
)

// Price is a single market's current price, normalized across sources.
type Price struct {
	MarketTitle string  `json:"market_title"`
	Probability float64 `json:"probability"`
	Volume      *float64 `json:"volume,omitempty"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
}

// PricePoint is one observation in a historical price series.
type PricePoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Probability float64   `json:"probability,omitempty"`
	Close       float64   `json:"close,omitempty"`
	Display     string    `json:"display,omitempty"`
}

// ErrRetrodictBlocked is returned by live-price tools when called under an
// active retrodict cutoff; callers should fall back to the _history variant.
var ErrRetrodictBlocked = fmt.Errorf("live market prices are unavailable in retrodict mode; use the history variant")

// Client fetches prices from Polymarket, Manifold, and an equity quote
// provider.
type Client struct {
	httpClient *http.Client
	printer    *message.Printer
}

// NewClient builds a Client with a 15s request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		printer:    message.NewPrinter(language.AmericanEnglish),
	}
}

func (c *Client) getJSON(ctx context.Context, reqURL string, params url.Values, out any) error {
	full := reqURL
	if len(params) > 0 {
		full += "?" + params.Encode()
	}

	result := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned %d", reqURL, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
	return result.Err
}

// PolymarketPrice searches Polymarket for markets matching query and
// returns their current YES prices. Blocked under retrodict mode.
func (c *Client) PolymarketPrice(ctx context.Context, query string, limit int) ([]Price, error) {
	if retrodict.IsActive(ctx) {
		return nil, ErrRetrodictBlocked
	}
	return c.PolymarketPriceSnapshot(ctx, query, limit)
}

// PolymarketPriceSnapshot is the retrodict-safe variant of PolymarketPrice:
// it runs the same market search but, unlike the live price tool, is not
// blocked under a retrodict cutoff. Polymarket's public API has no
// point-in-time history endpoint, so callers needing history under a
// cutoff get the current snapshot rather than a denial.
func (c *Client) PolymarketPriceSnapshot(ctx context.Context, query string, limit int) ([]Price, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var events []polymarketEvent
	err := c.getJSON(ctx, polymarketGammaAPI+"/events", url.Values{
		"title_contains": {query},
		"active":         {"true"},
		"limit":          {"10"},
	}, &events)
	if err != nil {
		return nil, fmt.Errorf("polymarket search: %w", err)
	}

	results := make([]Price, 0, limit)
	for _, event := range events {
		if len(results) >= limit {
			break
		}
		if price := parsePolymarketEvent(event); price != nil {
			results = append(results, *price)
		}
	}
	return results, nil
}

type polymarketEvent struct {
	Title   string             `json:"title"`
	Slug    string             `json:"slug"`
	Markets []polymarketMarket `json:"markets"`
}

type polymarketMarket struct {
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume        *float64        `json:"volume"`
}

func parsePolymarketEvent(event polymarketEvent) *Price {
	if len(event.Markets) == 0 {
		return nil
	}
	yesPrice, ok := parseYesPrice(event.Markets[0].OutcomePrices)
	if !ok {
		return nil
	}
	return &Price{
		MarketTitle: event.Title,
		Probability: yesPrice,
		Volume:      event.Markets[0].Volume,
		URL:         "https://polymarket.com/event/" + event.Slug,
		Source:      "polymarket",
	}
}

// parseYesPrice handles Polymarket's several outcomePrices encodings: a JSON
// array of numbers, of numeric strings, or a string-encoded array.
func parseYesPrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var asFloats []float64
	if err := json.Unmarshal(raw, &asFloats); err == nil && len(asFloats) > 0 {
		return asFloats[0], true
	}

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil && len(asStrings) > 0 {
		v, err := strconv.ParseFloat(asStrings[0], 64)
		return v, err == nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if strings.HasPrefix(trimmed, "[") {
			var nested []string
			if err := json.Unmarshal([]byte(strings.ReplaceAll(trimmed, "'", `"`)), &nested); err == nil && len(nested) > 0 {
				v, err := strconv.ParseFloat(nested[0], 64)
				return v, err == nil
			}
			return 0, false
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		return v, err == nil
	}
	return 0, false
}

// ManifoldPrice searches Manifold Markets for markets matching query.
// Blocked under retrodict mode.
func (c *Client) ManifoldPrice(ctx context.Context, query string, limit int) ([]Price, error) {
	if retrodict.IsActive(ctx) {
		return nil, ErrRetrodictBlocked
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var markets []manifoldMarket
	err := c.getJSON(ctx, manifoldAPI+"/search-markets", url.Values{
		"term":   {query},
		"limit":  {"10"},
		"filter": {"open"},
		"sort":   {"score"},
	}, &markets)
	if err != nil {
		return nil, fmt.Errorf("manifold search: %w", err)
	}

	results := make([]Price, 0, limit)
	for i, m := range markets {
		if i >= limit {
			break
		}
		results = append(results, parseManifoldMarket(m))
	}
	return results, nil
}

type manifoldMarket struct {
	Question    string   `json:"question"`
	Probability *float64 `json:"probability"`
	Volume      *float64 `json:"volume"`
	URL         string   `json:"url"`
	Slug        string   `json:"slug"`
}

func parseManifoldMarket(m manifoldMarket) Price {
	prob := 0.5
	if m.Probability != nil {
		prob = *m.Probability
	}
	marketURL := m.URL
	if marketURL == "" {
		marketURL = "https://manifold.markets/" + m.Slug
	}
	return Price{
		MarketTitle: m.Question,
		Probability: prob,
		Volume:      m.Volume,
		URL:         marketURL,
		Source:      "manifold",
	}
}

// ManifoldPriceHistory returns a market's probability history up to
// asOfMillis (the retrodict cutoff in Unix millis, or 0 for "now").
func (c *Client) ManifoldPriceHistory(ctx context.Context, marketID string, asOfMillis int64) ([]PricePoint, error) {
	if cfg, ok := retrodict.FromContext(ctx); ok && asOfMillis == 0 {
		asOfMillis = cfg.UnixMillis()
	}

	var bets []manifoldBet
	params := url.Values{"contractId": {marketID}, "limit": {"1000"}}
	if asOfMillis > 0 {
		params.Set("before", strconv.FormatInt(asOfMillis, 10))
	}
	if err := c.getJSON(ctx, manifoldAPI+"/bets", params, &bets); err != nil {
		return nil, fmt.Errorf("manifold history: %w", err)
	}

	points := make([]PricePoint, 0, len(bets))
	for _, b := range bets {
		points = append(points, PricePoint{
			Timestamp:   time.UnixMilli(b.CreatedTime),
			Probability: b.ProbAfter,
		})
	}
	return points, nil
}

type manifoldBet struct {
	CreatedTime int64   `json:"createdTime"`
	ProbAfter   float64 `json:"probAfter"`
}

// StockPrice fetches a current equity quote. Blocked under retrodict mode.
// There is no bundled equity-quote API key in this module; callers supply
// quoteFn to the provider they've configured (e.g. a brokerage or market
// data vendor client already wired elsewhere in the agent).
func (c *Client) StockPrice(ctx context.Context, symbol string, quoteFn func(ctx context.Context, symbol string) (float64, error)) (string, error) {
	if retrodict.IsActive(ctx) {
		return "", ErrRetrodictBlocked
	}
	price, err := quoteFn(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("stock quote for %s: %w", symbol, err)
	}
	return c.formatUSD(price), nil
}

// StockPriceHistory renders a historical close-price series as currency
// strings using the locale-aware formatter, capping the series at the
// retrodict cutoff when one is active.
func (c *Client) StockPriceHistory(ctx context.Context, points []PricePoint) []PricePoint {
	cfg, retrodictActive := retrodict.FromContext(ctx)

	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if retrodictActive && p.Timestamp.After(cfg.ForecastDate) {
			continue
		}
		p.Display = c.formatUSD(p.Close)
		out = append(out, p)
	}
	return out
}

func (c *Client) formatUSD(amount float64) string {
	unit := currency.USD
	return c.printer.Sprint(currency.Symbol(unit.Amount(amount)))
}
