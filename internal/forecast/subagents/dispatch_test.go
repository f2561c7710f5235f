package subagents

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDispatcher_Dispatch_UnknownAgent(t *testing.T) {
	d := NewDispatcher(func(ctx context.Context, tmpl Template, task string) (string, error) {
		t.Fatal("run should not be called for an unknown agent")
		return "", nil
	})
	_, err := d.Dispatch(context.Background(), "does-not-exist", "task")
	if err == nil {
		t.Fatal("expected an error for an unknown agent name")
	}
}

func TestDispatcher_Dispatch_LooksUpTemplate(t *testing.T) {
	var gotTmpl Template
	d := NewDispatcher(func(ctx context.Context, tmpl Template, task string) (string, error) {
		gotTmpl = tmpl
		return "report: " + task, nil
	})

	report, err := d.Dispatch(context.Background(), "market-researcher", "find related markets")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if report != "report: find related markets" {
		t.Fatalf("unexpected report: %q", report)
	}
	if gotTmpl.Name != MarketResearcher.Name {
		t.Fatalf("expected market-researcher template, got %q", gotTmpl.Name)
	}
}

func TestDispatchTool_Execute_InvalidParams(t *testing.T) {
	tool := NewDispatchTool(NewDispatcher(func(ctx context.Context, tmpl Template, task string) (string, error) {
		return "", nil
	}))
	res, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected invalid params to produce an error result")
	}
}

func TestDispatchTool_Execute_PropagatesDispatcherResult(t *testing.T) {
	tool := NewDispatchTool(NewDispatcher(func(ctx context.Context, tmpl Template, task string) (string, error) {
		return "precedents found", nil
	}))
	params, _ := json.Marshal(map[string]any{"agent": "precedent-finder", "task": "find precedents"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}
	if res.Content != "precedents found" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
}
