package main

import (
	"context"
	"testing"

	"github.com/haasonsaas/oracleforge/internal/tools/websearch"
)

func TestExaURLSearcher_NilClientReturnsNoResults(t *testing.T) {
	searcher := newExaURLSearcher(nil)
	urls, err := searcher.SearchURLs(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("SearchURLs: %v", err)
	}
	if urls != nil {
		t.Errorf("expected no candidate URLs without an Exa client, got %v", urls)
	}
}

func TestExaURLSearcher_MissingAPIKeyPropagatesError(t *testing.T) {
	searcher := newExaURLSearcher(websearch.NewExaClient("", nil))
	if _, err := searcher.SearchURLs(context.Background(), "query", 5); err == nil {
		t.Fatal("expected an error when the underlying Exa client has no API key")
	}
}

func TestLoadConfig_FallsBackToDefaultPath(t *testing.T) {
	if _, err := loadConfig("/nonexistent/oracleforge-test-config.yaml"); err == nil {
		t.Fatal("expected an error loading a config file that does not exist")
	}
}
