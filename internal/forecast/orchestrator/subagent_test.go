package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/subagents"
)

func TestEnableSubagentDispatch_RegistersTool(t *testing.T) {
	registry := agent.NewToolRegistry()
	orch := New(Config{Provider: &fakeProvider{}, Model: "test-model", Registry: registry})
	orch.EnableSubagentDispatch()

	found := false
	for _, tool := range registry.AsLLMTools() {
		if tool.Name() == "dispatch_subagent" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected dispatch_subagent to be registered after EnableSubagentDispatch")
	}
}

func TestEnableComposition_RegistersTool(t *testing.T) {
	registry := agent.NewToolRegistry()
	orch := New(Config{Provider: &fakeProvider{}, Model: "test-model", Registry: registry})
	orch.EnableComposition()

	found := false
	for _, tool := range registry.AsLLMTools() {
		if tool.Name() == "spawn_subquestions" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected spawn_subquestions to be registered after EnableComposition")
	}
}

func TestRunSubagent_ReturnsFinalAssistantText(t *testing.T) {
	provider := &fakeProvider{rounds: [][]*agent.CompletionChunk{
		{toolCallChunk("1", "search_exa", `{"query":"test"}`)},
		{textDoneChunk("final report text")},
	}}
	registry := newTestRegistry(&fakeTool{name: "search_exa"})
	orch := New(Config{Provider: provider, Model: "test-model", Registry: registry})

	tmpl := subagents.DeepResearcher
	report, err := orch.runSubagent(context.Background(), tmpl, "research X")
	if err != nil {
		t.Fatalf("runSubagent: %v", err)
	}
	if report != "final report text" {
		t.Fatalf("expected final report text, got %q", report)
	}
}

func TestRunSubagent_OnlyOffersTemplateTools(t *testing.T) {
	provider := &fakeProvider{rounds: [][]*agent.CompletionChunk{
		{textDoneChunk("done")},
	}}
	registry := newTestRegistry(&fakeTool{name: "search_exa"}, &fakeTool{name: "execute_code"})
	orch := New(Config{Provider: provider, Model: "test-model", Registry: registry})

	tmpl := subagents.DeepResearcher // researchTools, not execute_code
	if _, err := orch.runSubagent(context.Background(), tmpl, "research X"); err != nil {
		t.Fatalf("runSubagent: %v", err)
	}
	for _, tool := range provider.lastReq.Tools {
		if tool.Name() == "execute_code" {
			t.Fatal("deep-researcher should not be offered execute_code")
		}
	}
}

func TestRunSubagent_NoReportIsAnError(t *testing.T) {
	provider := &fakeProvider{rounds: make([][]*agent.CompletionChunk, maxSubagentRounds)}
	for i := range provider.rounds {
		provider.rounds[i] = []*agent.CompletionChunk{toolCallChunk("1", "search_exa", `{}`)}
	}
	registry := newTestRegistry(&fakeTool{name: "search_exa"})
	orch := New(Config{Provider: provider, Model: "test-model", Registry: registry})

	_, err := orch.runSubagent(context.Background(), subagents.DeepResearcher, "research X")
	if err == nil {
		t.Fatal("expected an error when the subagent never produces final text")
	}
}

func TestDispatchTool_Execute_RoutesThroughRunSubagent(t *testing.T) {
	provider := &fakeProvider{rounds: [][]*agent.CompletionChunk{
		{textDoneChunk("estimate: 42")},
	}}
	registry := newTestRegistry(&fakeTool{name: "search_exa"}, &fakeTool{name: "execute_code"})
	orch := New(Config{Provider: provider, Model: "test-model", Registry: registry})
	orch.EnableSubagentDispatch()

	var dispatchTool agent.Tool
	for _, tool := range registry.AsLLMTools() {
		if tool.Name() == "dispatch_subagent" {
			dispatchTool = tool
		}
	}
	if dispatchTool == nil {
		t.Fatal("dispatch_subagent not registered")
	}

	params, _ := json.Marshal(map[string]any{"agent": "estimator", "task": "how big is X?"})
	res, err := dispatchTool.Execute(context.Background(), params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}
	if res.Content != "estimate: 42" {
		t.Fatalf("expected the subagent's final text, got %q", res.Content)
	}
}

func TestDispatchTool_Execute_UnknownAgentErrors(t *testing.T) {
	registry := agent.NewToolRegistry()
	orch := New(Config{Provider: &fakeProvider{}, Model: "test-model", Registry: registry})
	orch.EnableSubagentDispatch()

	var dispatchTool agent.Tool
	for _, tool := range registry.AsLLMTools() {
		if tool.Name() == "dispatch_subagent" {
			dispatchTool = tool
		}
	}

	params, _ := json.Marshal(map[string]any{"agent": "does-not-exist", "task": "x"})
	res, err := dispatchTool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for an unknown agent name")
	}
}
