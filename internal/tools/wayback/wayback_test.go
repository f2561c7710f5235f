package wayback

import (
	"testing"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

var _ retrodict.WaybackChecker = (*Client)(nil)

func TestNormalizeTimestamp_TruncatesToDate(t *testing.T) {
	cases := map[string]int{
		"20260115":       20260115,
		"20260115120000": 20260115,
		"2026011512":     20260115,
	}
	for input, want := range cases {
		if got := normalizeTimestamp(input); got != want {
			t.Errorf("normalizeTimestamp(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("5"); d.Seconds() != 5 {
		t.Errorf("expected 5s, got %v", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("expected 0 for empty header, got %v", d)
	}
	if d := parseRetryAfter("not-a-number"); d != 0 {
		t.Errorf("expected 0 for malformed header, got %v", d)
	}
}

func TestNewClient_ReturnsUsableClient(t *testing.T) {
	if NewClient() == nil {
		t.Fatal("expected a non-nil client")
	}
}
