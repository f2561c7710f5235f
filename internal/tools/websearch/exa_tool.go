package websearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// ExaSearchTool exposes ExaClient.Search as search_exa.
type ExaSearchTool struct {
	client *ExaClient
}

// NewExaSearchTool wraps client as the search_exa tool.
func NewExaSearchTool(client *ExaClient) *ExaSearchTool {
	return &ExaSearchTool{client: client}
}

func (t *ExaSearchTool) Name() string { return "search_exa" }

func (t *ExaSearchTool) Description() string {
	return "Search the live web via Exa. Returns titles, URLs, snippets, and highlights. " +
		"Under a retrodict cutoff, results are filtered to publications at or before the cutoff date " +
		"and cross-checked against the Wayback Machine."
}

func (t *ExaSearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"},
			"num_results": {"type": "integer", "description": "Number of results (default 10, max 25)"}
		},
		"required": ["query"]
	}`)
}

func (t *ExaSearchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query      string `json:"query"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid search_exa params: %v", err), IsError: true}, nil
	}
	results, err := t.client.Search(ctx, in.Query, in.NumResults)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(encoded)}, nil
}
