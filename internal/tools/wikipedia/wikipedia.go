// Package wikipedia implements the three Wikipedia tool modes (search,
// summary, full article) plus historical-revision resolution for retrodict
// mode: titles resolve to the last revision at or before the cutoff via the
// MediaWiki revision API, then that revision's rendered HTML is fetched and
// its text extracted.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/cache"
	"github.com/haasonsaas/oracleforge/internal/tools/websearch"
)

const (
	apiURL  = "https://en.wikipedia.org/w/api.php"
	userAgent = "oracleforge/1.0 (forecasting research)"
)

// Mode selects which shape of Wikipedia content to return.
type Mode string

const (
	ModeSearch  Mode = "search"
	ModeSummary Mode = "summary"
	ModeFull    Mode = "full"
)

// Article is the resolved result for a summary/full lookup.
type Article struct {
	Title              string `json:"title"`
	URL                string `json:"url"`
	Extract            string `json:"extract"`
	RevisionID         int64  `json:"revision_id,omitempty"`
	RevisionTimestamp  string `json:"revision_timestamp,omitempty"`
	CutoffDate         string `json:"cutoff_date,omitempty"`
}

// SearchResult is one hit from the search mode.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Client queries the MediaWiki API.
type Client struct {
	httpClient *http.Client
	cache      *cache.TTLCache
	extractor  *websearch.ContentExtractor
}

// NewClient builds a Client with a 1-hour article cache (Wikipedia content
// is stable enough to reuse across one run's search-then-fetch sequence).
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache.NewTTLCache(cache.TTLCacheOptions{TTL: time.Hour, MaxEntries: 500}),
		extractor:  websearch.NewContentExtractor(),
	}
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("utf8", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned %d", resp.StatusCode)
	}

	body := make([]byte, 0, 4096)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
		}
		if readErr != nil {
			break
		}
	}
	return body, nil
}

// Search performs a full-text search and returns matching titles/snippets.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode wikipedia search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Query.Search))
	for _, r := range parsed.Query.Search {
		results = append(results, SearchResult{Title: r.Title, Snippet: stripHTMLTags(r.Snippet)})
	}
	return results, nil
}

// Summary fetches the current (live) article summary via the REST summary
// endpoint.
func (c *Client) Summary(ctx context.Context, title string) (*Article, error) {
	encoded := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	reqURL := fmt.Sprintf("https://en.wikipedia.org/api/rest_v1/page/summary/%s", encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article not found: %s", title)
	}

	var parsed struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	return &Article{
		Title:   parsed.Title,
		URL:     parsed.ContentURLs.Desktop.Page,
		Extract: parsed.Extract,
	}, nil
}

// Full fetches the current full article text via the content extractor
// against the article's canonical page.
func (c *Client) Full(ctx context.Context, title string) (*Article, error) {
	encoded := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	pageURL := "https://en.wikipedia.org/wiki/" + encoded

	if cached, ok := c.cache.Get("full:" + title); ok {
		if article, ok := cached.(*Article); ok {
			return article, nil
		}
	}

	text, err := c.extractor.Extract(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article %s: %w", title, err)
	}

	article := &Article{Title: title, URL: pageURL, Extract: text}
	c.cache.Set("full:"+title, article)
	return article, nil
}

// FetchHistorical resolves title to the revision current at or before
// cutoffDate (YYYY-MM-DD), then fetches and extracts that revision's
// rendered HTML. Used exclusively in retrodict mode.
func (c *Client) FetchHistorical(ctx context.Context, title, cutoffDate string) (*Article, error) {
	cacheKey := "historical:" + title + ":" + cutoffDate
	if cached, ok := c.cache.Get(cacheKey); ok {
		if article, ok := cached.(*Article); ok {
			return article, nil
		}
	}

	cutoffTS := strings.ReplaceAll(cutoffDate, "-", "") + "235959"

	params := url.Values{
		"action":    {"query"},
		"titles":    {title},
		"prop":      {"revisions"},
		"rvprop":    {"ids|timestamp"},
		"rvlimit":   {"1"},
		"rvstart":   {cutoffTS},
		"rvdir":     {"older"},
		"redirects": {"1"},
	}
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Query struct {
			Pages map[string]struct {
				Title     string `json:"title"`
				Revisions []struct {
					RevID     int64  `json:"revid"`
					Timestamp string `json:"timestamp"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode revision query: %w", err)
	}

	if len(parsed.Query.Pages) == 0 {
		return nil, fmt.Errorf("article not found: %s", title)
	}

	var page struct {
		Title     string
		Revisions []struct {
			RevID     int64
			Timestamp string
		}
	}
	for pageID, p := range parsed.Query.Pages {
		if pageID == "-1" {
			return nil, fmt.Errorf("article not found: %s", title)
		}
		page.Title = p.Title
		for _, rev := range p.Revisions {
			page.Revisions = append(page.Revisions, struct {
				RevID     int64
				Timestamp string
			}{RevID: rev.RevID, Timestamp: rev.Timestamp})
		}
		break
	}
	if len(page.Revisions) == 0 {
		return nil, fmt.Errorf("no revision found before %s for: %s", cutoffDate, title)
	}

	revision := page.Revisions[0]
	resolvedTitle := page.Title
	if resolvedTitle == "" {
		resolvedTitle = title
	}
	encoded := url.PathEscape(strings.ReplaceAll(resolvedTitle, " ", "_"))
	restURL := fmt.Sprintf("https://en.wikipedia.org/api/rest_v1/page/html/%s/%d", encoded, revision.RevID)

	text, err := c.extractor.Extract(ctx, restURL)
	if err != nil {
		return nil, fmt.Errorf("extract revision %d for %s: %w", revision.RevID, title, err)
	}

	article := &Article{
		Title:             resolvedTitle,
		URL:               "https://en.wikipedia.org/wiki/" + encoded,
		Extract:           text,
		RevisionID:        revision.RevID,
		RevisionTimestamp: revision.Timestamp,
		CutoffDate:        cutoffDate,
	}
	c.cache.Set(cacheKey, article)
	return article, nil
}

// ExtractIntro returns everything before the first section header,
// heuristically stopping once at least 500 characters have accumulated and
// a blank line is hit.
func ExtractIntro(text string) string {
	lines := strings.Split(text, "\n")
	var introLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(introLines) == 0 {
			introLines = append(introLines, line)
			continue
		}
		if len(introLines) > 0 {
			if trimmed != "" {
				introLines = append(introLines, line)
				continue
			}
			current := strings.Join(introLines, "\n")
			if len(current) > 500 {
				break
			}
			introLines = append(introLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(introLines, "\n"))
}

func stripHTMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
