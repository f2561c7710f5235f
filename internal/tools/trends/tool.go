package trends

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// GoogleTrendsTool adapts Client.InterestOverTime to the agent.Tool interface.
type GoogleTrendsTool struct{ client *Client }

// NewGoogleTrendsTool builds the google_trends tool bound to client.
func NewGoogleTrendsTool(client *Client) *GoogleTrendsTool { return &GoogleTrendsTool{client: client} }

func (t *GoogleTrendsTool) Name() string { return "google_trends" }

func (t *GoogleTrendsTool) Description() string {
	return "Fetch Google Trends search-interest over time for a keyword. Timeframe window is " +
		"clamped to the retrodict cutoff when active."
}

func (t *GoogleTrendsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"keyword": {"type": "string"},
			"timeframe": {"type": "string"},
			"geo": {"type": "string"}
		},
		"required": ["keyword"]
	}`)
}

func (t *GoogleTrendsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Keyword   string `json:"keyword"`
		Timeframe string `json:"timeframe"`
		Geo       string `json:"geo"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid google_trends params: %v", err), IsError: true}, nil
	}
	result, err := t.client.InterestOverTime(ctx, in.Keyword, in.Timeframe, in.Geo)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// GoogleTrendsCompareTool adapts Client.Compare to the agent.Tool interface.
type GoogleTrendsCompareTool struct{ client *Client }

// NewGoogleTrendsCompareTool builds the google_trends_compare tool bound to client.
func NewGoogleTrendsCompareTool(client *Client) *GoogleTrendsCompareTool {
	return &GoogleTrendsCompareTool{client: client}
}

func (t *GoogleTrendsCompareTool) Name() string { return "google_trends_compare" }

func (t *GoogleTrendsCompareTool) Description() string {
	return "Compare Google Trends search interest across multiple keywords over the same timeframe."
}

func (t *GoogleTrendsCompareTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"keywords": {"type": "array", "items": {"type": "string"}, "minItems": 2},
			"timeframe": {"type": "string"},
			"geo": {"type": "string"}
		},
		"required": ["keywords"]
	}`)
}

func (t *GoogleTrendsCompareTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Keywords  []string `json:"keywords"`
		Timeframe string   `json:"timeframe"`
		Geo       string   `json:"geo"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid google_trends_compare params: %v", err), IsError: true}, nil
	}
	result, err := t.client.Compare(ctx, in.Keywords, in.Timeframe, in.Geo)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// GoogleTrendsRelatedTool adapts Client.RelatedQueries to the agent.Tool interface.
type GoogleTrendsRelatedTool struct{ client *Client }

// NewGoogleTrendsRelatedTool builds the google_trends_related tool bound to client.
func NewGoogleTrendsRelatedTool(client *Client) *GoogleTrendsRelatedTool {
	return &GoogleTrendsRelatedTool{client: client}
}

func (t *GoogleTrendsRelatedTool) Name() string { return "google_trends_related" }

func (t *GoogleTrendsRelatedTool) Description() string {
	return "Fetch queries related to a keyword on Google Trends, ranked by relative popularity."
}

func (t *GoogleTrendsRelatedTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"keyword": {"type": "string"},
			"timeframe": {"type": "string"},
			"geo": {"type": "string"}
		},
		"required": ["keyword"]
	}`)
}

func (t *GoogleTrendsRelatedTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Keyword   string `json:"keyword"`
		Timeframe string `json:"timeframe"`
		Geo       string `json:"geo"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid google_trends_related params: %v", err), IsError: true}, nil
	}
	result, err := t.client.RelatedQueries(ctx, in.Keyword, in.Timeframe, in.Geo)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}
