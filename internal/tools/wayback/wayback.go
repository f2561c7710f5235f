// Package wayback implements retrodict.WaybackChecker against the Internet
// Archive's Wayback Machine Availability API, with rate limiting, retry on
// 429/5xx, and 24-hour result caching (availability rarely changes).
package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/haasonsaas/oracleforge/internal/cache"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/ratelimit"
	"github.com/haasonsaas/oracleforge/internal/retry"
	"github.com/haasonsaas/oracleforge/internal/tools/websearch"
)

const availabilityEndpoint = "https://archive.org/wayback/available"

// RateLimitError marks a 429 from the availability API as retryable,
// carrying the Retry-After hint when present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("wayback: rate limited, retry after %s", e.RetryAfter)
}

type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Client queries the Wayback Availability API and validates snapshots
// against a retrodict cutoff, satisfying retrodict.WaybackChecker.
type Client struct {
	httpClient *http.Client
	sem        *ratelimit.Semaphore
	cache      *cache.TTLCache
	extractor  *websearch.ContentExtractor
}

// NewClient builds a Client with a 5-slot concurrency cap and a 24-hour
// availability cache.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sem:        ratelimit.NewSemaphore(5),
		cache:      cache.NewTTLCache(cache.TTLCacheOptions{TTL: 24 * time.Hour, MaxEntries: 10000}),
		extractor:  websearch.NewContentExtractor(),
	}
}

// ClosestSnapshot returns the Wayback timestamp of the closest pre-cutoff
// snapshot of url, or "" if none exists. Implements retrodict.WaybackChecker.
func (c *Client) ClosestSnapshot(ctx context.Context, url, timestamp string) (string, error) {
	cacheKey := "wayback:" + url + ":" + timestamp
	if cached, ok := c.cache.Get(cacheKey); ok {
		snapshot, _ := cached.(string)
		return snapshot, nil
	}

	if err := c.sem.Acquire(ctx); err != nil {
		return "", err
	}
	defer c.sem.Release()

	var snapshot string
	result := retry.Do(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Factor:       2.0,
		Jitter:       true,
	}, func() error {
		resolved, err := c.query(ctx, url, timestamp)
		if err != nil {
			return err
		}
		snapshot = resolved
		return nil
	})

	if result.Err != nil {
		// Persistent failure resolves as "no snapshot" rather than raising,
		// per the tool's degrade-gracefully contract.
		return "", nil
	}

	c.cache.Set(cacheKey, snapshot)
	return snapshot, nil
}

func (c *Client) query(ctx context.Context, targetURL, timestamp string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, availabilityEndpoint, nil)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("build wayback request: %w", err))
	}
	q := req.URL.Query()
	q.Set("url", targetURL)
	q.Set("timestamp", timestamp)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wayback request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &RateLimitError{RetryAfter: retryAfter}
	}
	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("wayback returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", retry.Permanent(fmt.Errorf("wayback returned %d", resp.StatusCode))
	}

	var parsed availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode wayback response: %w", err))
	}

	closest := parsed.ArchivedSnapshots.Closest
	if !closest.Available || closest.Timestamp == "" {
		return "", nil
	}

	if normalizeTimestamp(closest.Timestamp) > normalizeTimestamp(timestamp) {
		// Closest snapshot is after the cutoff; reject it even though the
		// API offered it as "closest".
		return "", nil
	}

	return closest.Timestamp, nil
}

// normalizeTimestamp truncates a Wayback timestamp (8-14 digits) to its
// 8-digit date component for safe comparison across precisions.
func normalizeTimestamp(timestamp string) int {
	if len(timestamp) > 8 {
		timestamp = timestamp[:8]
	}
	n, _ := strconv.Atoi(timestamp)
	return n
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// FetchContent fetches an archived snapshot and extracts readable text, or
// "" if no valid pre-cutoff snapshot exists.
func (c *Client) FetchContent(ctx context.Context, url, timestamp string) (string, error) {
	snapshotTS, err := c.ClosestSnapshot(ctx, url, timestamp)
	if err != nil || snapshotTS == "" {
		return "", err
	}

	if err := c.sem.Acquire(ctx); err != nil {
		return "", err
	}
	defer c.sem.Release()

	return c.extractor.Extract(ctx, retrodict.RewriteToWayback(url, snapshotTS))
}
