// Package retrodict implements the time-travel ("retrodict") enforcement
// layer: a cutoff date carried ambiently through context.Context, and a
// pre-invocation hook that restricts, rewrites, or denies tool calls so a
// forecast produced in retrodict mode cannot observe information published
// after the cutoff.
package retrodict

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config configures retrodict (blind forecasting) mode: the date all tools
// should behave as if "today" is, and whether tools that can't be reliably
// restricted are blocked (StrictMode) or allowed through with a warning.
type Config struct {
	ForecastDate time.Time
	StrictMode   bool
}

// DateStr formats the cutoff as YYYY-MM-DD, the format search filters expect.
func (c Config) DateStr() string {
	return c.ForecastDate.Format("2006-01-02")
}

// WaybackTimestamp formats the cutoff as YYYYMMDD, the Wayback Machine's
// snapshot timestamp prefix.
func (c Config) WaybackTimestamp() string {
	return c.ForecastDate.Format("20060102")
}

// UnixSeconds returns the cutoff as a Unix timestamp in seconds.
func (c Config) UnixSeconds() int64 {
	return c.ForecastDate.Unix()
}

// UnixMillis returns the cutoff as a Unix timestamp in milliseconds, the
// resolution Manifold's API expects.
func (c Config) UnixMillis() int64 {
	return c.ForecastDate.UnixMilli()
}

type contextKey struct{}

// WithConfig returns a context carrying the retrodict cutoff for the
// remainder of a forecast session. Absence of a value in context means the
// session is running in live (non-retrodict) mode.
func WithConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the ambient retrodict configuration, if any.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(Config)
	return cfg, ok
}

// IsActive reports whether the context carries a retrodict cutoff.
func IsActive(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}

// DateCappableTools names the tool identifiers whose date-range arguments
// retrodict mode rewrites in place rather than denying outright. Live-only
// market tools (stock_price, polymarket_price, manifold_price) are excluded
// from the tool set entirely at policy-assembly time, not handled here.
var DateCappableTools = map[string]bool{
	"stock_history":         true,
	"fred_series":           true,
	"google_trends":         true,
	"google_trends_compare": true,
}

// Action is the decision a pre-invocation hook reaches for a single tool call.
type Action int

const (
	// Allow passes the tool call through unmodified.
	Allow Action = iota
	// Modify passes the tool call through with ModifiedInput substituted.
	Modify
	// Deny blocks the tool call; Reason is surfaced to the model as the
	// tool's error result so it can adapt its plan.
	Deny
)

// Decision is the result of evaluating a tool call against a retrodict cutoff.
type Decision struct {
	Action        Action
	ModifiedInput map[string]any
	Reason        string
}

func allow() Decision { return Decision{Action: Allow} }

func deny(reason string) Decision {
	return Decision{Action: Deny, Reason: reason}
}

func modify(input map[string]any) Decision {
	return Decision{Action: Modify, ModifiedInput: input}
}

// WaybackChecker validates that a URL has an archived snapshot at or before
// a cutoff timestamp, returning the closest prior snapshot's timestamp.
// Implemented by internal/tools/wayback; declared here to avoid an import
// cycle between the two packages.
type WaybackChecker interface {
	ClosestSnapshot(ctx context.Context, url, timestamp string) (string, error)
}

// Hook evaluates a single tool call against the retrodict cutoff and
// returns a Decision. It mirrors the PreToolUse hook contract of a
// permission-gated agent loop: allow, deny, or substitute the input.
type Hook struct {
	Config  Config
	Wayback WaybackChecker
}

// NewHook constructs a retrodict pre-invocation hook bound to cfg.
func NewHook(cfg Config, wayback WaybackChecker) *Hook {
	return &Hook{Config: cfg, Wayback: wayback}
}

// Evaluate inspects toolName/input and returns the enforcement decision.
// Tools with no retrodict-specific handling are allowed through unmodified.
func (h *Hook) Evaluate(ctx context.Context, toolName string, input map[string]any) (Decision, error) {
	switch toolName {
	case "websearch":
		return h.evaluateWebSearch(input), nil
	case "webfetch":
		return h.evaluateWebFetch(ctx, input)
	case "stock_history":
		return h.capField(input, "end_date", h.Config.DateStr()), nil
	case "fred_series":
		return h.capField(input, "observation_end", h.Config.DateStr()), nil
	case "google_trends", "google_trends_compare":
		return h.evaluateTrends(input), nil
	case "get_cp_history":
		return h.capField(input, "before", h.Config.DateStr()), nil
	default:
		return allow(), nil
	}
}

func (h *Hook) capField(input map[string]any, field, value string) Decision {
	out := cloneInput(input)
	out[field] = value
	return modify(out)
}

func (h *Hook) evaluateWebSearch(input map[string]any) Decision {
	query, _ := input["query"].(string)
	marker := fmt.Sprintf("before:%s", h.Config.DateStr())
	if query == "" || containsMarker(query, marker) {
		return allow()
	}
	out := cloneInput(input)
	out["query"] = query + " " + marker
	return modify(out)
}

func containsMarker(query, marker string) bool {
	return strings.Contains(query, marker)
}

// evaluateWebFetch checks Wayback availability before rewriting the URL to
// an archived snapshot, denying the call outright if no snapshot exists at
// or before the cutoff (never silently falling through to live content).
func (h *Hook) evaluateWebFetch(ctx context.Context, input map[string]any) (Decision, error) {
	url, _ := input["url"].(string)
	if url == "" || containsMarker(url, "web.archive.org") {
		return allow(), nil
	}
	if h.Wayback == nil {
		return deny("no wayback checker configured for retrodict mode"), nil
	}

	snapshotTS, err := h.Wayback.ClosestSnapshot(ctx, url, h.Config.WaybackTimestamp())
	if err != nil {
		if h.Config.StrictMode {
			return deny("HTTP 404: URL not found or unavailable."), nil
		}
		snapshotTS = h.Config.WaybackTimestamp()
	}
	if snapshotTS == "" || snapshotTS > h.Config.WaybackTimestamp() {
		return deny("HTTP 404: URL not found or unavailable."), nil
	}

	out := cloneInput(input)
	out["url"] = RewriteToWayback(url, snapshotTS)
	return modify(out), nil
}

func (h *Hook) evaluateTrends(input map[string]any) Decision {
	start := h.Config.ForecastDate.AddDate(-1, 0, 0)
	timeframe := fmt.Sprintf("%s %s", start.Format("2006-01-02"), h.Config.DateStr())
	return h.capField(input, "timeframe", timeframe)
}

// RewriteToWayback builds a Wayback Machine snapshot URL for the given
// original URL and timestamp. The "id_" modifier requests raw content
// without the Wayback toolbar injection.
func RewriteToWayback(url, timestamp string) string {
	return fmt.Sprintf("https://web.archive.org/web/%sid_/%s", timestamp, url)
}

func cloneInput(input map[string]any) map[string]any {
	out := make(map[string]any, len(input)+1)
	for k, v := range input {
		out[k] = v
	}
	return out
}
