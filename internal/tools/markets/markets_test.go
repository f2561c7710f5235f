package markets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestParseYesPrice_NumericArray(t *testing.T) {
	raw := json.RawMessage(`[0.73, 0.27]`)
	got, ok := parseYesPrice(raw)
	if !ok || got != 0.73 {
		t.Fatalf("expected 0.73, got %v ok=%v", got, ok)
	}
}

func TestParseYesPrice_StringArray(t *testing.T) {
	raw := json.RawMessage(`["0.42", "0.58"]`)
	got, ok := parseYesPrice(raw)
	if !ok || got != 0.42 {
		t.Fatalf("expected 0.42, got %v ok=%v", got, ok)
	}
}

func TestParseYesPrice_StringEncodedArray(t *testing.T) {
	raw := json.RawMessage(`"['0.6', '0.4']"`)
	got, ok := parseYesPrice(raw)
	if !ok || got != 0.6 {
		t.Fatalf("expected 0.6, got %v ok=%v", got, ok)
	}
}

func TestParseYesPrice_Empty(t *testing.T) {
	if _, ok := parseYesPrice(nil); ok {
		t.Fatal("expected false for empty input")
	}
}

func TestParseManifoldMarket_DefaultsProbability(t *testing.T) {
	m := manifoldMarket{Question: "Will it happen?", Slug: "will-it-happen"}
	p := parseManifoldMarket(m)
	if p.Probability != 0.5 {
		t.Errorf("expected default probability 0.5, got %v", p.Probability)
	}
	if p.URL != "https://manifold.markets/will-it-happen" {
		t.Errorf("expected derived URL, got %q", p.URL)
	}
}

func TestPolymarketPrice_BlockedUnderRetrodict(t *testing.T) {
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: time.Now()})
	c := NewClient()
	if _, err := c.PolymarketPrice(ctx, "query", 5); err != ErrRetrodictBlocked {
		t.Fatalf("expected ErrRetrodictBlocked, got %v", err)
	}
}

func TestManifoldPrice_BlockedUnderRetrodict(t *testing.T) {
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: time.Now()})
	c := NewClient()
	if _, err := c.ManifoldPrice(ctx, "query", 5); err != ErrRetrodictBlocked {
		t.Fatalf("expected ErrRetrodictBlocked, got %v", err)
	}
}

func TestStockPriceHistory_CapsAtCutoff(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: cutoff})
	c := NewClient()

	points := []PricePoint{
		{Timestamp: cutoff.AddDate(0, 0, -1), Close: 100},
		{Timestamp: cutoff.AddDate(0, 0, 1), Close: 200},
	}
	got := c.StockPriceHistory(ctx, points)
	if len(got) != 1 {
		t.Fatalf("expected 1 point after cutoff filtering, got %d", len(got))
	}
	if got[0].Display == "" {
		t.Error("expected formatted display price")
	}
}
