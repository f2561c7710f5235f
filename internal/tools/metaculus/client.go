// Package metaculus implements the tournament platform's HTTP surface:
// question metadata retrieval, tournament listing, coherence links,
// community prediction history, forecast submission, and comment posting.
//
// There is no pre-built Go client for this API in the dependency pack, so
// this package is a deliberate stdlib net/http exception (see DESIGN.md).
package metaculus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a thin, context-aware HTTP client for the tournament platform.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client bound to the given base URL and API token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// APIError wraps a non-2xx response from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("metaculus API returned %d: %s", e.StatusCode, e.Body)
}

// IsAlreadyClosed reports whether the error reflects a question that has
// already closed for forecasting (a 400 with a specific platform message).
func (e *APIError) IsAlreadyClosed() bool {
	return e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Body), "already closed")
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
}

// parseTimeOrZero parses an RFC 3339 timestamp, returning the zero time on
// failure rather than propagating a parse error for an optional field.
func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
