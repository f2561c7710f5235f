package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestTool_ReturnsPastForecastsForPost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, _, err := store.Save(ctx, binaryOutput(55, 0.7)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tool := NewTool(store)
	params, _ := json.Marshal(map[string]any{"post_id": 55})
	res, err := tool.Execute(ctx, params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}

	var out struct {
		Forecasts []entry `json:"forecasts"`
		Count     int     `json:"count"`
	}
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected 1 forecast, got %d", out.Count)
	}
	if out.Forecasts[0].Probability == nil || *out.Forecasts[0].Probability != 0.7 {
		t.Errorf("expected probability 0.7 to round-trip, got %+v", out.Forecasts[0].Probability)
	}
}

func TestTool_UnknownPostReturnsZeroCount(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store)

	params, _ := json.Marshal(map[string]any{"post_id": 404})
	res, err := tool.Execute(context.Background(), params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 0 {
		t.Fatalf("expected 0 forecasts, got %d", out.Count)
	}
}

func TestTool_RetrodictModeHidesFutureAttemptsAndResolution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	output := binaryOutput(99, 0.4)
	if _, _, err := store.Save(ctx, output); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tool := NewTool(store)
	cutoff := time.Now().Add(-24 * time.Hour)
	retroCtx := retrodict.WithConfig(ctx, retrodict.Config{ForecastDate: cutoff})

	params, _ := json.Marshal(map[string]any{"post_id": 99})
	res, err := tool.Execute(retroCtx, params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}

	var out struct {
		Count     int     `json:"count"`
		Forecasts []entry `json:"forecasts"`
	}
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 0 {
		t.Fatalf("expected the attempt saved after the cutoff to be hidden, got %d", out.Count)
	}
}

func TestTool_InvalidParamsReturnsToolError(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store)

	res, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for malformed params")
	}
}
