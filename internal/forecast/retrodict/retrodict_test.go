package retrodict

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		ForecastDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		StrictMode:   true,
	}
}

func TestConfigFormatting(t *testing.T) {
	cfg := testConfig()
	if cfg.DateStr() != "2024-03-15" {
		t.Errorf("DateStr() = %q", cfg.DateStr())
	}
	if cfg.WaybackTimestamp() != "20240315" {
		t.Errorf("WaybackTimestamp() = %q", cfg.WaybackTimestamp())
	}
}

func TestWithConfigRoundTrip(t *testing.T) {
	ctx := WithConfig(context.Background(), testConfig())
	cfg, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected config in context")
	}
	if cfg.DateStr() != "2024-03-15" {
		t.Errorf("got %q", cfg.DateStr())
	}
	if !IsActive(ctx) {
		t.Error("expected IsActive to be true")
	}
	if IsActive(context.Background()) {
		t.Error("expected IsActive to be false for bare context")
	}
}

func TestHook_WebSearchAppendsBeforeOperator(t *testing.T) {
	hook := NewHook(testConfig(), nil)
	decision, err := hook.Evaluate(context.Background(), "web_search", map[string]any{"query": "election polling"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Modify {
		t.Fatalf("expected Modify, got %v", decision.Action)
	}
	if decision.ModifiedInput["query"] != "election polling before:2024-03-15" {
		t.Errorf("unexpected query: %v", decision.ModifiedInput["query"])
	}
}

func TestHook_WebSearchIdempotent(t *testing.T) {
	hook := NewHook(testConfig(), nil)
	decision, err := hook.Evaluate(context.Background(), "web_search", map[string]any{"query": "x before:2024-03-15"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Allow {
		t.Fatalf("expected Allow when marker already present, got %v", decision.Action)
	}
}

type fakeWayback struct {
	snapshot string
	err      error
}

func (f fakeWayback) ClosestSnapshot(ctx context.Context, url, timestamp string) (string, error) {
	return f.snapshot, f.err
}

func TestHook_WebFetchRewritesToWayback(t *testing.T) {
	hook := NewHook(testConfig(), fakeWayback{snapshot: "20240310"})
	decision, err := hook.Evaluate(context.Background(), "web_fetch", map[string]any{"url": "https://example.com/a"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Modify {
		t.Fatalf("expected Modify, got %v", decision.Action)
	}
	want := "https://web.archive.org/web/20240310id_/https://example.com/a"
	if decision.ModifiedInput["url"] != want {
		t.Errorf("got %v, want %v", decision.ModifiedInput["url"], want)
	}
}

func TestHook_WebFetchDeniesFutureSnapshot(t *testing.T) {
	hook := NewHook(testConfig(), fakeWayback{snapshot: "20240401"})
	decision, err := hook.Evaluate(context.Background(), "web_fetch", map[string]any{"url": "https://example.com/a"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Deny {
		t.Fatalf("expected Deny for a snapshot after the cutoff, got %v", decision.Action)
	}
}

func TestHook_WebFetchDeniesOnCheckFailureInStrictMode(t *testing.T) {
	hook := NewHook(testConfig(), fakeWayback{err: errors.New("network down")})
	decision, err := hook.Evaluate(context.Background(), "web_fetch", map[string]any{"url": "https://example.com/a"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Deny {
		t.Fatalf("expected Deny in strict mode when the availability check fails, got %v", decision.Action)
	}
}

func TestHook_CapsFREDObservationEnd(t *testing.T) {
	hook := NewHook(testConfig(), nil)
	decision, err := hook.Evaluate(context.Background(), "financial__fred_series", map[string]any{"series_id": "GDP"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.ModifiedInput["observation_end"] != "2024-03-15" {
		t.Errorf("got %v", decision.ModifiedInput["observation_end"])
	}
}

func TestHook_AllowsUnknownTools(t *testing.T) {
	hook := NewHook(testConfig(), nil)
	decision, err := hook.Evaluate(context.Background(), "notes__write", map[string]any{})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if decision.Action != Allow {
		t.Fatalf("expected Allow for unhandled tool, got %v", decision.Action)
	}
}

func TestGeneratePyPIOnlyIPTablesRules(t *testing.T) {
	rules := GeneratePyPIOnlyIPTablesRules(map[string]bool{"151.101.0.223": true})
	if rules[len(rules)-1] != "iptables -A OUTPUT -j DROP" {
		t.Errorf("expected trailing DROP rule, got %q", rules[len(rules)-1])
	}
	found := false
	for _, r := range rules {
		if r == "iptables -A OUTPUT -d 151.101.0.223 -p tcp --dport 443 -j ACCEPT" {
			found = true
		}
	}
	if !found {
		t.Error("expected an ACCEPT rule for the allowed IP")
	}
}
