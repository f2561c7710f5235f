package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

// Tool adapts Client into the single mode-dispatched "wikipedia" tool: mode
// "search" (default) finds articles, "summary"/"full" fetch article content
// by exact title. Under an active retrodict cutoff, content is resolved
// from the article's revision history as of that date instead of live.
type Tool struct{ client *Client }

// NewTool builds the wikipedia tool bound to client.
func NewTool(client *Client) *Tool { return &Tool{client: client} }

func (t *Tool) Name() string { return "wikipedia" }

func (t *Tool) Description() string {
	return "Search Wikipedia or fetch article content. Modes: 'search' (default) finds " +
		"articles matching query; 'summary' fetches article intro by exact title; 'full' " +
		"fetches the entire article by exact title."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"mode": {"type": "string", "enum": ["search", "summary", "full"]},
			"num_results": {"type": "integer"}
		},
		"required": ["query"]
	}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query      string `json:"query"`
		Mode       string `json:"mode"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid wikipedia params: %v", err), IsError: true}, nil
	}
	mode := Mode(in.Mode)
	if mode == "" {
		mode = ModeSearch
	}

	cfg, retrodictActive := retrodict.FromContext(ctx)

	if mode == ModeSearch {
		results, err := t.client.Search(ctx, in.Query, in.NumResults)
		if err != nil {
			return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
		}
		if retrodictActive {
			results = t.historicizeSearchResults(ctx, results, cfg.DateStr())
		}
		encoded, _ := json.Marshal(map[string]any{"query": in.Query, "mode": mode, "results": results})
		return &agent.ToolResult{Content: string(encoded)}, nil
	}

	var (
		article *Article
		err     error
	)
	if retrodictActive {
		article, err = t.client.FetchHistorical(ctx, in.Query, cfg.DateStr())
	} else if mode == ModeFull {
		article, err = t.client.Full(ctx, in.Query)
	} else {
		article, err = t.client.Summary(ctx, in.Query)
	}
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	if retrodictActive && mode == ModeSummary {
		article.Extract = ExtractIntro(article.Extract)
	}
	encoded, _ := json.Marshal(article)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// historicizeSearchResults replaces each search hit's live snippet with an
// intro drawn from the article's revision as of cutoffDate, dropping any
// article that did not yet exist.
func (t *Tool) historicizeSearchResults(ctx context.Context, results []SearchResult, cutoffDate string) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		historical, err := t.client.FetchHistorical(ctx, r.Title, cutoffDate)
		if err != nil {
			continue
		}
		snippet := ExtractIntro(historical.Extract)
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		out = append(out, SearchResult{Title: historical.Title, Snippet: snippet})
	}
	return out
}
