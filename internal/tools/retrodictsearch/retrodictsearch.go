// Package retrodictsearch implements retrodict_search: a retrodict-mode-only
// web search that returns only results whose URL has a validated Wayback
// Machine snapshot at or before the cutoff, with title/snippet pulled from
// the archived page rather than the live web. This is the sole substitute
// for live web search once a retrodict cutoff makes current search results
// untrustworthy.
package retrodictsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

// URLSearcher performs a plain web search and returns candidate result URLs,
// without any snippet or title (those come from the archived page instead).
type URLSearcher interface {
	SearchURLs(ctx context.Context, query string, limit int) ([]string, error)
}

// ArchiveFetcher resolves a URL's closest pre-cutoff snapshot and extracts
// its readable text. Satisfied by wayback.Client.
type ArchiveFetcher interface {
	ClosestSnapshot(ctx context.Context, url, timestamp string) (string, error)
	FetchContent(ctx context.Context, url, timestamp string) (string, error)
}

// Result is one validated, archive-backed search result.
type Result struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Timestamp string `json:"archived_timestamp"`
}

// Tool performs validated historical web search.
type Tool struct {
	searcher URLSearcher
	archive  ArchiveFetcher
}

// NewTool builds a Tool from a plain URL searcher and an archive fetcher.
func NewTool(searcher URLSearcher, archive ArchiveFetcher) *Tool {
	return &Tool{searcher: searcher, archive: archive}
}

// ErrNotRetrodict is returned when Search is invoked outside retrodict mode;
// this tool exists specifically to replace live search once a cutoff makes
// live results untrustworthy, and has nothing useful to do otherwise.
var ErrNotRetrodict = fmt.Errorf("retrodict_search is only available in retrodict mode")

// Search performs a web search for query, then validates and replaces each
// result with its archived Wayback snapshot as of the ambient retrodict
// cutoff, discarding URLs with no qualifying snapshot.
func (t *Tool) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	cfg, ok := retrodict.FromContext(ctx)
	if !ok {
		return nil, ErrNotRetrodict
	}
	if numResults <= 0 || numResults > 20 {
		numResults = 10
	}

	urls, err := t.searcher.SearchURLs(ctx, query, numResults*2)
	if err != nil {
		return nil, fmt.Errorf("retrodict_search: underlying search failed: %w", err)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	cutoffTS := cfg.WaybackTimestamp()
	validated := t.validateAndFetch(ctx, urls, cutoffTS)

	if len(validated) > numResults {
		validated = validated[:numResults]
	}
	return validated, nil
}

func (t *Tool) validateAndFetch(ctx context.Context, urls []string, cutoffTS string) []Result {
	type outcome struct {
		index  int
		result *Result
	}

	var wg sync.WaitGroup
	outcomes := make(chan outcome, len(urls))

	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		wg.Add(1)
		go func(index int, candidateURL string) {
			defer wg.Done()
			result := t.checkAndFetch(ctx, candidateURL, cutoffTS)
			outcomes <- outcome{index: index, result: result}
		}(i, u)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	ordered := make([]*Result, len(urls))
	for o := range outcomes {
		ordered[o.index] = o.result
	}

	results := make([]Result, 0, len(urls))
	for _, r := range ordered {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func (t *Tool) Name() string { return "retrodict_search" }

func (t *Tool) Description() string {
	return "Search the web and return only results with a validated Wayback Machine snapshot " +
		"at or before the retrodict cutoff. Only available in retrodict mode; it replaces " +
		"live web search entirely once a cutoff makes current results untrustworthy."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"num_results": {"type": "integer"}
		},
		"required": ["query"]
	}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query      string `json:"query"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid retrodict_search params: %v", err), IsError: true}, nil
	}
	results, err := t.Search(ctx, in.Query, in.NumResults)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(results)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

func (t *Tool) checkAndFetch(ctx context.Context, candidateURL, cutoffTS string) *Result {
	snapshotTS, err := t.archive.ClosestSnapshot(ctx, candidateURL, cutoffTS)
	if err != nil || snapshotTS == "" {
		return nil
	}

	text, err := t.archive.FetchContent(ctx, candidateURL, cutoffTS)
	if err != nil || text == "" {
		return &Result{Title: candidateURL, URL: candidateURL, Timestamp: snapshotTS}
	}

	title := candidateURL
	snippet := text
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if firstLine := strings.SplitN(text, "\n", 2)[0]; firstLine != "" && len(firstLine) < 200 {
		title = firstLine
	}

	return &Result{Title: title, URL: candidateURL, Snippet: snippet, Timestamp: snapshotTS}
}
