package trends

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestTrendDirection(t *testing.T) {
	cases := []struct {
		name   string
		values []int
		want   string
	}{
		{"too short", []int{1, 2}, "insufficient_data"},
		{"rising", []int{10, 10, 10, 10, 50, 50, 50, 50}, "up"},
		{"falling", []int{50, 50, 50, 50, 10, 10, 10, 10}, "down"},
		{"stable", []int{20, 20, 20, 20, 21, 21, 21, 21}, "stable"},
		{"zero base rising", []int{0, 0, 0, 0, 5, 5, 5, 5}, "up"},
	}
	for _, c := range cases {
		if got := trendDirection(c.values); got != c.want {
			t.Errorf("%s: trendDirection(%v) = %q, want %q", c.name, c.values, got, c.want)
		}
	}
}

func TestResolveTimeframe_LiveModePassesThrough(t *testing.T) {
	got := resolveTimeframe(context.Background(), "today 3-m")
	if got != "today 3-m" {
		t.Errorf("expected live-mode timeframe unchanged, got %q", got)
	}
}

func TestResolveTimeframe_RetrodictRewritesToAbsoluteRange(t *testing.T) {
	cutoff := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: cutoff})

	got := resolveTimeframe(ctx, "today 1-m")
	want := "2025-05-15 2025-06-15"
	if got != want {
		t.Errorf("resolveTimeframe = %q, want %q", got, want)
	}
}

func TestDisplayGeo(t *testing.T) {
	if displayGeo("") != "worldwide" {
		t.Error("expected empty geo to display as worldwide")
	}
	if displayGeo("US") != "US" {
		t.Error("expected non-empty geo to pass through")
	}
}

func TestAverageAndMinMax(t *testing.T) {
	values := []int{10, 20, 30}
	if average(values) != 20 {
		t.Errorf("expected average 20, got %v", average(values))
	}
	if maxInt(values) != 30 {
		t.Errorf("expected max 30, got %d", maxInt(values))
	}
	if minInt(values) != 10 {
		t.Errorf("expected min 10, got %d", minInt(values))
	}
}

func TestCompare_CapsAtFiveKeywords(t *testing.T) {
	c := NewClient()
	if c == nil {
		t.Fatal("expected non-nil client")
	}
}
