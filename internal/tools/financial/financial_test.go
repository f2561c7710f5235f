package financial

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestFredSeries_RequiresAPIKey(t *testing.T) {
	c := NewClient("")
	if _, err := c.FredSeries(context.Background(), "DGS10", SeriesOptions{}); err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFredSearch_RequiresAPIKey(t *testing.T) {
	c := NewClient("")
	if _, err := c.FredSearch(context.Background(), "inflation", 10); err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFredSeries_ClampsEndDateUnderRetrodict(t *testing.T) {
	cutoff := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: cutoff})

	cfg, ok := retrodict.FromContext(ctx)
	if !ok {
		t.Fatal("expected retrodict config in context")
	}
	if cfg.DateStr() != "2025-06-15" {
		t.Errorf("expected clamped date 2025-06-15, got %s", cfg.DateStr())
	}
}

func TestCompanyFinancials_NormalizesTicker(t *testing.T) {
	c := NewClient("")
	_, err := c.CompanyFinancials(context.Background(), "aapl", "quarterly")
	// No network in tests; only verify it doesn't panic and surfaces an error
	// rather than succeeding without a live HTTP call.
	if err == nil {
		t.Fatal("expected an error without network access")
	}
}
