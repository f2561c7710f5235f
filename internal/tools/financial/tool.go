package financial

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// FredSeriesTool adapts Client.FredSeries to the agent.Tool interface.
type FredSeriesTool struct{ client *Client }

// NewFredSeriesTool builds the fred_series tool bound to client.
func NewFredSeriesTool(client *Client) *FredSeriesTool { return &FredSeriesTool{client: client} }

func (t *FredSeriesTool) Name() string { return "fred_series" }

func (t *FredSeriesTool) Description() string {
	return "Fetch recent observations and metadata for a FRED economic data series " +
		"(e.g. CPIAUCSL, UNRATE, FEDFUNDS). Observation end date is capped at the " +
		"retrodict cutoff when one is active."
}

func (t *FredSeriesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"series_id": {"type": "string"},
			"observation_start": {"type": "string"},
			"observation_end": {"type": "string"}
		},
		"required": ["series_id"]
	}`)
}

func (t *FredSeriesTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		SeriesID         string `json:"series_id"`
		ObservationStart string `json:"observation_start"`
		ObservationEnd   string `json:"observation_end"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid fred_series params: %v", err), IsError: true}, nil
	}
	result, err := t.client.FredSeries(ctx, in.SeriesID, SeriesOptions{
		ObservationStart: in.ObservationStart,
		ObservationEnd:   in.ObservationEnd,
	})
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// FredSearchTool adapts Client.FredSearch to the agent.Tool interface.
type FredSearchTool struct{ client *Client }

// NewFredSearchTool builds the fred_search tool bound to client.
func NewFredSearchTool(client *Client) *FredSearchTool { return &FredSearchTool{client: client} }

func (t *FredSearchTool) Name() string { return "fred_search" }

func (t *FredSearchTool) Description() string {
	return "Search FRED for economic data series matching a keyword query."
}

func (t *FredSearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer"}
		},
		"required": ["query"]
	}`)
}

func (t *FredSearchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid fred_search params: %v", err), IsError: true}, nil
	}
	hits, err := t.client.FredSearch(ctx, in.Query, in.Limit)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(hits)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// CompanyFinancialsTool adapts Client.CompanyFinancials to the agent.Tool interface.
type CompanyFinancialsTool struct{ client *Client }

// NewCompanyFinancialsTool builds the company_financials tool bound to client.
func NewCompanyFinancialsTool(client *Client) *CompanyFinancialsTool {
	return &CompanyFinancialsTool{client: client}
}

func (t *CompanyFinancialsTool) Name() string { return "company_financials" }

func (t *CompanyFinancialsTool) Description() string {
	return "Fetch quarterly or annual income-statement line items for a public company ticker."
}

func (t *CompanyFinancialsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"ticker": {"type": "string"},
			"period": {"type": "string", "enum": ["quarterly", "annual"]}
		},
		"required": ["ticker"]
	}`)
}

func (t *CompanyFinancialsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Ticker string `json:"ticker"`
		Period string `json:"period"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid company_financials params: %v", err), IsError: true}, nil
	}
	result, err := t.client.CompanyFinancials(ctx, in.Ticker, in.Period)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}
