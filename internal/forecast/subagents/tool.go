package subagents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// DispatchTool adapts a Dispatcher into dispatch_subagent, handing a narrow
// research task to one of the fixed roster templates rather than spawning a
// full recursive forecast.
type DispatchTool struct {
	dispatcher *Dispatcher
}

// NewDispatchTool builds the dispatch_subagent tool bound to d.
func NewDispatchTool(d *Dispatcher) *DispatchTool {
	return &DispatchTool{dispatcher: d}
}

func (t *DispatchTool) Name() string { return "dispatch_subagent" }

func (t *DispatchTool) Description() string {
	return "Hand a narrow research task to one of the specialized subagents: " +
		"deep-researcher (base rates, key factors, enumeration), estimator (Fermi " +
		"estimation with code execution), precedent-finder (historical precedents), " +
		"resolution-analyst (resolution-criteria edge cases), or market-researcher " +
		"(related questions and market prices across platforms). Returns the " +
		"subagent's final report; it cannot itself spawn sub-questions or other subagents."
}

func (t *DispatchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"agent": {
				"type": "string",
				"enum": ["deep-researcher", "estimator", "precedent-finder", "resolution-analyst", "market-researcher"]
			},
			"task": {"type": "string"}
		},
		"required": ["agent", "task"]
	}`)
}

type dispatchInput struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}

func (t *DispatchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in dispatchInput
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid dispatch_subagent params: %v", err), IsError: true}, nil
	}

	report, err := t.dispatcher.Dispatch(ctx, in.Agent, in.Task)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: report}, nil
}
