package notes

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestTool_WriteAndRead(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, "123_20260101")

	writeParams, _ := json.Marshal(map[string]any{
		"mode": "write", "type": "finding", "topic": "base rate",
		"summary": "historical base rate is 12%", "content": "details here",
	})
	res, err := tool.Execute(context.Background(), writeParams)
	if err != nil || res.IsError {
		t.Fatalf("write failed: %v %+v", err, res)
	}

	var note Note
	if err := json.Unmarshal([]byte(res.Content), &note); err != nil {
		t.Fatalf("decode note: %v", err)
	}

	readParams, _ := json.Marshal(map[string]any{"mode": "read", "id": note.ID})
	res, err = tool.Execute(context.Background(), readParams)
	if err != nil || res.IsError {
		t.Fatalf("read failed: %v %+v", err, res)
	}
	if !strings.Contains(res.Content, "details here") {
		t.Errorf("expected content round-trip, got %s", res.Content)
	}
}

func TestTool_WriteMetaDisabledWithoutSessionID(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, "")

	params, _ := json.Marshal(map[string]any{"mode": "write_meta", "content": "reflection"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error when no session ID is bound")
	}
}

func TestTool_WriteMetaSucceedsWithSessionID(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, "123_20260101")

	params, _ := json.Marshal(map[string]any{"mode": "write_meta", "content": "# reflection"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil || res.IsError {
		t.Fatalf("write_meta failed: %v %+v", err, res)
	}
}

func TestTool_UnknownModeErrors(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, "")

	params, _ := json.Marshal(map[string]any{"mode": "bogus"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for unknown mode")
	}
}
