package markets

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

var stooqHTTPClient = &http.Client{Timeout: 15 * time.Second}

// stooqQuote fetches a free-tier delayed last-trade price for symbol from
// Stooq's CSV endpoint. Used as the default quoteFn for StockPriceTool since
// no brokerage/market-data credential is configured anywhere in this module.
func stooqQuote(ctx context.Context, symbol string) (float64, error) {
	rows, err := fetchStooqCSV(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no quote data for %s", symbol)
	}
	last := rows[len(rows)-1]
	return last.Close, nil
}

func stooqHistory(ctx context.Context, symbol string) ([]PricePoint, error) {
	rows, err := fetchStooqCSV(ctx, symbol)
	if err != nil {
		return nil, err
	}
	points := make([]PricePoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, PricePoint{Timestamp: r.Date, Close: r.Close})
	}
	return points, nil
}

type stooqRow struct {
	Date  time.Time
	Close float64
}

func fetchStooqCSV(ctx context.Context, symbol string) ([]stooqRow, error) {
	reqURL := fmt.Sprintf("https://stooq.com/q/d/l/?s=%s&i=d", strings.ToLower(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := stooqHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stooq request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	var rows []stooqRow
	scanner := bufio.NewScanner(resp.Body)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header row: Date,Open,High,Low,Close,Volume
		}
		fields := strings.Split(scanner.Text(), ",")
		if len(fields) < 5 {
			continue
		}
		date, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			continue
		}
		rows = append(rows, stooqRow{Date: date, Close: closePrice})
	}
	return rows, nil
}

// PolymarketPriceTool adapts Client.PolymarketPrice to the agent.Tool interface.
type PolymarketPriceTool struct{ client *Client }

// NewPolymarketPriceTool builds the polymarket_price tool bound to client.
func NewPolymarketPriceTool(client *Client) *PolymarketPriceTool {
	return &PolymarketPriceTool{client: client}
}

func (t *PolymarketPriceTool) Name() string { return "polymarket_price" }

func (t *PolymarketPriceTool) Description() string {
	return "Search Polymarket for markets matching a query and return their current YES prices. " +
		"Unavailable in retrodict mode; use polymarket_history instead."
}

func (t *PolymarketPriceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}, "limit": {"type": "integer"}},
		"required": ["query"]
	}`)
}

func (t *PolymarketPriceTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid polymarket_price params: %v", err), IsError: true}, nil
	}
	prices, err := t.client.PolymarketPrice(ctx, in.Query, in.Limit)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(prices)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// ManifoldPriceTool adapts Client.ManifoldPrice to the agent.Tool interface.
type ManifoldPriceTool struct{ client *Client }

// NewManifoldPriceTool builds the manifold_price tool bound to client.
func NewManifoldPriceTool(client *Client) *ManifoldPriceTool {
	return &ManifoldPriceTool{client: client}
}

func (t *ManifoldPriceTool) Name() string { return "manifold_price" }

func (t *ManifoldPriceTool) Description() string {
	return "Search Manifold Markets for markets matching a query and return their current " +
		"probabilities. Unavailable in retrodict mode; use manifold_history instead."
}

func (t *ManifoldPriceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}, "limit": {"type": "integer"}},
		"required": ["query"]
	}`)
}

func (t *ManifoldPriceTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid manifold_price params: %v", err), IsError: true}, nil
	}
	prices, err := t.client.ManifoldPrice(ctx, in.Query, in.Limit)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(prices)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// StockPriceTool adapts Client.StockPrice to the agent.Tool interface, using
// Stooq's free delayed-quote CSV endpoint as the quote source.
type StockPriceTool struct{ client *Client }

// NewStockPriceTool builds the stock_price tool bound to client.
func NewStockPriceTool(client *Client) *StockPriceTool { return &StockPriceTool{client: client} }

func (t *StockPriceTool) Name() string { return "stock_price" }

func (t *StockPriceTool) Description() string {
	return "Fetch a current equity quote for a ticker symbol. Unavailable in retrodict mode; " +
		"use stock_history instead."
}

func (t *StockPriceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"symbol": {"type": "string"}},
		"required": ["symbol"]
	}`)
}

func (t *StockPriceTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid stock_price params: %v", err), IsError: true}, nil
	}
	quote, err := t.client.StockPrice(ctx, in.Symbol, stooqQuote)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: quote}, nil
}

// PolymarketHistoryTool adapts Client.ManifoldPriceHistory-style history
// lookup for Polymarket: since the live price tool already returns a Volume
// snapshot, history here formats the same search result as a PricePoint
// series capped at the retrodict cutoff.
type PolymarketHistoryTool struct{ client *Client }

// NewPolymarketHistoryTool builds the polymarket_history tool bound to client.
func NewPolymarketHistoryTool(client *Client) *PolymarketHistoryTool {
	return &PolymarketHistoryTool{client: client}
}

func (t *PolymarketHistoryTool) Name() string { return "polymarket_history" }

func (t *PolymarketHistoryTool) Description() string {
	return "Search Polymarket for markets matching a query and return each as a single " +
		"point-in-time price snapshot, safe to use under a retrodict cutoff."
}

func (t *PolymarketHistoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}, "limit": {"type": "integer"}},
		"required": ["query"]
	}`)
}

func (t *PolymarketHistoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid polymarket_history params: %v", err), IsError: true}, nil
	}
	prices, err := t.client.PolymarketPriceSnapshot(ctx, in.Query, in.Limit)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(prices)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// ManifoldHistoryTool adapts Client.ManifoldPriceHistory to the agent.Tool interface.
type ManifoldHistoryTool struct{ client *Client }

// NewManifoldHistoryTool builds the manifold_history tool bound to client.
func NewManifoldHistoryTool(client *Client) *ManifoldHistoryTool {
	return &ManifoldHistoryTool{client: client}
}

func (t *ManifoldHistoryTool) Name() string { return "manifold_history" }

func (t *ManifoldHistoryTool) Description() string {
	return "Fetch a Manifold market's probability history up to the retrodict cutoff (or now)."
}

func (t *ManifoldHistoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"market_id": {"type": "string"}, "as_of_millis": {"type": "integer"}},
		"required": ["market_id"]
	}`)
}

func (t *ManifoldHistoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		MarketID   string `json:"market_id"`
		AsOfMillis int64  `json:"as_of_millis"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid manifold_history params: %v", err), IsError: true}, nil
	}
	points, err := t.client.ManifoldPriceHistory(ctx, in.MarketID, in.AsOfMillis)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(points)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// StockHistoryTool adapts Client.StockPriceHistory to the agent.Tool
// interface, backed by Stooq's free daily-close CSV endpoint.
type StockHistoryTool struct{ client *Client }

// NewStockHistoryTool builds the stock_history tool bound to client.
func NewStockHistoryTool(client *Client) *StockHistoryTool { return &StockHistoryTool{client: client} }

func (t *StockHistoryTool) Name() string { return "stock_history" }

func (t *StockHistoryTool) Description() string {
	return "Fetch a ticker symbol's daily close-price history, capped at the retrodict cutoff when active."
}

func (t *StockHistoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"symbol": {"type": "string"}, "end_date": {"type": "string"}},
		"required": ["symbol"]
	}`)
}

func (t *StockHistoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid stock_history params: %v", err), IsError: true}, nil
	}
	raw, err := stooqHistory(ctx, in.Symbol)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	points := t.client.StockPriceHistory(ctx, raw)
	encoded, _ := json.Marshal(points)
	return &agent.ToolResult{Content: string(encoded)}, nil
}
