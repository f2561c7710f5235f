package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/cache"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/retry"
)

const exaSearchURL = "https://api.exa.ai/search"

// ErrExaNotConfigured is returned when no Exa API key is available.
var ErrExaNotConfigured = fmt.Errorf("EXA_API_KEY not configured")

// ExaResult is a single Exa search hit, with Wayback-validated publication
// metadata once a retrodict cutoff has been applied.
type ExaResult struct {
	Title         string   `json:"title,omitempty"`
	URL           string   `json:"url,omitempty"`
	Snippet       string   `json:"snippet,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Score         float64  `json:"score,omitempty"`
}

// ArchiveValidator checks whether a URL has a Wayback snapshot at or before
// a cutoff timestamp. Satisfied by wayback.Client; accepted as an interface
// here (rather than imported directly) since wayback already depends on
// this package for content extraction.
type ArchiveValidator interface {
	ClosestSnapshot(ctx context.Context, url, timestamp string) (string, error)
}

// ExaClient performs Exa searches, with retrodict-mode publication-date
// filtering and archive validation layered on top.
type ExaClient struct {
	httpClient *http.Client
	apiKey     string
	cache      *cache.TTLCache
	validator  ArchiveValidator
}

// NewExaClient builds an ExaClient. apiKey may be empty, in which case
// Search returns ErrExaNotConfigured. validator may be nil, in which case
// retrodict-mode results are filtered by publication date only (no archive
// cross-check).
func NewExaClient(apiKey string, validator ArchiveValidator) *ExaClient {
	return &ExaClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		cache:      cache.NewTTLCache(cache.TTLCacheOptions{TTL: 5 * time.Minute, MaxEntries: 500}),
		validator:  validator,
	}
}

type exaContentsSpec struct {
	Text struct {
		IncludeHTMLTags bool `json:"includeHtmlTags"`
	} `json:"text"`
	Highlights struct {
		Query            string `json:"query"`
		NumSentences     int    `json:"numSentences"`
		HighlightsPerURL int    `json:"highlightsPerUrl"`
	} `json:"highlights"`
}

type exaSearchRequest struct {
	Query           string          `json:"query"`
	Type            string          `json:"type"`
	UseAutoprompt   bool            `json:"useAutoprompt"`
	NumResults      int             `json:"numResults"`
	Livecrawl       string          `json:"livecrawl"`
	Contents        exaContentsSpec `json:"contents"`
	PublishedBefore string          `json:"publishedBefore,omitempty"`
}

type exaSearchResponse struct {
	Results []struct {
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		Text          string   `json:"text"`
		Highlights    []string `json:"highlights"`
		PublishedDate string   `json:"publishedDate"`
		Score         float64  `json:"score"`
	} `json:"results"`
}

// Search executes a cached (5 minute), retried (3 attempt) Exa search. When
// the context carries an active retrodict cutoff, the server-side
// publishedBefore filter is applied, client-side date filtering drops
// results with no or post-cutoff publication date (Exa's filter is
// unreliable for static files like PDFs), and livecrawl is disabled.
func (c *ExaClient) Search(ctx context.Context, query string, numResults int) ([]ExaResult, error) {
	if c.apiKey == "" {
		return nil, ErrExaNotConfigured
	}
	if numResults <= 0 || numResults > 25 {
		numResults = 10
	}

	cfg, retrodictActive := retrodict.FromContext(ctx)
	livecrawl := "always"
	var publishedBefore string
	if retrodictActive {
		livecrawl = "never"
		publishedBefore = cfg.DateStr()
	}

	cacheKey := fmt.Sprintf("exa:%s:%d:%s", query, numResults, publishedBefore)
	if cached, ok := c.cache.Get(cacheKey); ok {
		if results, ok := cached.([]ExaResult); ok {
			return results, nil
		}
	}

	payload := exaSearchRequest{
		Query:         query,
		Type:          "auto",
		UseAutoprompt: true,
		NumResults:    numResults,
		Livecrawl:     livecrawl,
	}
	payload.Contents.Text.IncludeHTMLTags = false
	payload.Contents.Highlights.Query = query
	payload.Contents.Highlights.NumSentences = 4
	payload.Contents.Highlights.HighlightsPerURL = 3
	if publishedBefore != "" {
		payload.PublishedBefore = publishedBefore + "T23:59:59.999Z"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode exa request: %w", err)
	}

	var parsed exaSearchResponse
	result := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaSearchURL, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("content-type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("exa API returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if result.Err != nil {
		return nil, fmt.Errorf("exa search failed for %q: %w", query, result.Err)
	}

	results := make([]ExaResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		snippet := r.Text
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		highlights := r.Highlights
		if len(highlights) > 3 {
			highlights = highlights[:3]
		}
		results = append(results, ExaResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       snippet,
			Highlights:    highlights,
			PublishedDate: strings.TrimSuffix(r.PublishedDate, "Z"),
			Score:         r.Score,
		})
	}

	if retrodictActive {
		results = filterByPublishedDate(results, cfg.DateStr())
		if c.validator != nil {
			results = c.validateAgainstArchive(ctx, results, cfg.WaybackTimestamp())
		}
	}

	c.cache.Set(cacheKey, results)
	return results, nil
}

// filterByPublishedDate drops results with no publication date or one after
// cutoffDate, since Exa's server-side publishedBefore filter is unreliable
// for static files (PDFs, investor-relations pages).
func filterByPublishedDate(results []ExaResult, cutoffDate string) []ExaResult {
	validated := make([]ExaResult, 0, len(results))
	for _, r := range results {
		if len(r.PublishedDate) >= 10 && r.PublishedDate[:10] <= cutoffDate {
			validated = append(validated, r)
		}
	}
	return validated
}

func (c *ExaClient) validateAgainstArchive(ctx context.Context, results []ExaResult, cutoffTS string) []ExaResult {
	validated := make([]ExaResult, 0, len(results))
	for _, r := range results {
		snapshotTS, err := c.validator.ClosestSnapshot(ctx, r.URL, cutoffTS)
		if err != nil || snapshotTS == "" {
			continue
		}
		validated = append(validated, r)
	}
	return validated
}
