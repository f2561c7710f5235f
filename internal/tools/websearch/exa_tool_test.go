package websearch

import (
	"context"
	"encoding/json"
	"testing"
)

func TestExaSearchTool_InvalidParamsReturnsToolError(t *testing.T) {
	tool := NewExaSearchTool(NewExaClient("key", nil))
	res, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for malformed params")
	}
}

func TestExaSearchTool_MissingAPIKeySurfacesAsToolError(t *testing.T) {
	tool := NewExaSearchTool(NewExaClient("", nil))
	params, _ := json.Marshal(map[string]any{"query": "base rate of recessions"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error when no API key is configured")
	}
}

func TestExaSearchTool_Name(t *testing.T) {
	tool := NewExaSearchTool(NewExaClient("key", nil))
	if tool.Name() != "search_exa" {
		t.Errorf("expected tool name search_exa, got %q", tool.Name())
	}
}
