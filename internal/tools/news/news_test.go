package news

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestSearch_BlockedUnderRetrodict(t *testing.T) {
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: time.Now()})
	c := NewClient("id", "secret")
	if _, err := c.Search(ctx, "query", 10); err != ErrRetrodictUnavailable {
		t.Fatalf("expected ErrRetrodictUnavailable, got %v", err)
	}
}

func TestToken_RequiresCredentials(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.token(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestSearch_DefaultsLimit(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Search(context.Background(), "query", 0)
	if err == nil {
		t.Fatal("expected error without configured credentials")
	}
}
