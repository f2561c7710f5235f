// Package news implements the search_news tool against an AskNews-shaped
// news search API: client-credentials OAuth2 token exchange followed by a
// search call returning article titles, summaries, dates, and sources. This
// tool is never exposed in retrodict mode — a live news index cannot be
// reliably restricted to "as of" a historical cutoff, so forecast runs that
// require publication-date-bounded search fall back to search_exa and
// retrodict_search instead.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/retry"
)

const (
	tokenEndpoint  = "https://auth.asknews.app/oauth2/token"
	searchEndpoint = "https://api.asknews.app/v1/news/search"
)

// ErrRetrodictUnavailable is returned when search_news is called under an
// active retrodict cutoff.
var ErrRetrodictUnavailable = fmt.Errorf("search_news is unavailable in retrodict mode; use search_exa or retrodict_search instead")

// Article is one news search hit.
type Article struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	PubDate   time.Time `json:"pub_date"`
}

// SearchResult is the response shape for a search_news call.
type SearchResult struct {
	Query   string    `json:"query"`
	Count   int       `json:"count"`
	Articles []Article `json:"articles"`
}

// Client authenticates against AskNews and performs searches.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string

	mu          sync.Mutex
	tokenSource oauth2.TokenSource
}

// NewClient builds a Client. An empty clientID/clientSecret means search_news
// is unconfigured; Search will return an error describing the missing
// credential, mirroring the gated-tool pattern used for FRED.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("ASKNEWS_CLIENT_ID/ASKNEWS_CLIENT_SECRET not configured")
	}

	if c.tokenSource == nil {
		cfg := &clientcredentials.Config{
			ClientID:     c.clientID,
			ClientSecret: c.clientSecret,
			TokenURL:     tokenEndpoint,
			Scopes:       []string{"news"},
		}
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		c.tokenSource = cfg.TokenSource(tokenCtx)
	}

	tok, err := c.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("asknews auth: %w", err)
	}
	return tok.AccessToken, nil
}

// Search queries current news for query, returning up to limit articles.
// Blocked entirely under an active retrodict cutoff.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if retrodict.IsActive(ctx) {
		return nil, ErrRetrodictUnavailable
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"query":       {query},
		"n_articles":  {fmt.Sprintf("%d", limit)},
		"return_type": {"both"},
	}

	var parsed struct {
		AsString string `json:"as_string"`
		Articles []struct {
			Headline    string `json:"eng_title"`
			Summary     string `json:"summary"`
			Source      string `json:"source_id"`
			ArticleURL  string `json:"article_url"`
			PubDate     string `json:"pub_date"`
		} `json:"as_dicts"`
	}

	result := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("asknews search returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if result.Err != nil {
		return nil, fmt.Errorf("search_news failed for %q: %w", query, result.Err)
	}

	articles := make([]Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		pubDate, _ := time.Parse(time.RFC3339, a.PubDate)
		articles = append(articles, Article{
			Title:   a.Headline,
			Summary: a.Summary,
			Source:  a.Source,
			URL:     a.ArticleURL,
			PubDate: pubDate,
		})
	}

	return &SearchResult{Query: query, Count: len(articles), Articles: articles}, nil
}
