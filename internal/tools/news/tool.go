package news

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// SearchTool adapts Client.Search to the agent.Tool interface. It is never
// offered in retrodict mode (see policy.ToolGroups["group:asknews"]): a news
// aggregator has no reliable way to restrict results to a past cutoff.
type SearchTool struct{ client *Client }

// NewSearchTool builds the search_news tool bound to client.
func NewSearchTool(client *Client) *SearchTool { return &SearchTool{client: client} }

func (t *SearchTool) Name() string { return "search_news" }

func (t *SearchTool) Description() string {
	return "Search recent news articles via AskNews. Returns titles, summaries, sources, URLs, and publish dates."
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid search_news params: %v", err), IsError: true}, nil
	}
	result, err := t.client.Search(ctx, in.Query, in.Limit)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded)}, nil
}
