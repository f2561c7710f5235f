package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/subagents"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// maxSubagentRounds bounds a dispatched subagent's own tool-calling loop,
// well short of a full forecast run since its task is narrow by design.
const maxSubagentRounds = 10

// EnableSubagentDispatch wires dispatch_subagent into the registry, bound
// back to runSubagent for each dispatched template.
func (o *Orchestrator) EnableSubagentDispatch() *subagents.Dispatcher {
	o.dispatcher = subagents.NewDispatcher(o.runSubagent)
	if o.cfg.Registry != nil {
		o.cfg.Registry.Register(subagents.NewDispatchTool(o.dispatcher))
	}
	return o.dispatcher
}

// runSubagent runs a bounded tool-calling loop using tmpl's prompt as the
// system prompt and tmpl's tool list as the available toolset, returning the
// final assistant text as the subagent's report. A dispatched subagent never
// sees spawn_subquestions or dispatch_subagent itself, so it can't recurse.
func (o *Orchestrator) runSubagent(ctx context.Context, tmpl subagents.Template, task string) (string, error) {
	if o.cfg.Registry == nil {
		return "", fmt.Errorf("dispatch_subagent %q: no tool registry configured", tmpl.Name)
	}

	allowed := make(map[string]bool, len(tmpl.Tools))
	for _, name := range tmpl.Tools {
		allowed[name] = true
	}
	var tools []agent.Tool
	for _, t := range o.cfg.Registry.AsLLMTools() {
		if allowed[t.Name()] {
			tools = append(tools, t)
		}
	}

	messages := []agent.CompletionMessage{{Role: "user", Content: task}}
	var lastText string

	for round := 0; round < maxSubagentRounds; round++ {
		req := &agent.CompletionRequest{
			Model:     tmpl.Model,
			System:    tmpl.Prompt,
			Messages:  messages,
			Tools:     tools,
			MaxTokens: o.cfg.MaxTokens,
		}

		chunks, err := o.cfg.Provider.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("dispatch_subagent %q: %w", tmpl.Name, err)
		}

		var assistantText strings.Builder
		var pendingCalls []models.ToolCall
		for chunk := range chunks {
			if chunk.Error != nil {
				return "", fmt.Errorf("dispatch_subagent %q: %w", tmpl.Name, chunk.Error)
			}
			if chunk.Text != "" {
				assistantText.WriteString(chunk.Text)
			}
			if chunk.ToolCall != nil {
				pendingCalls = append(pendingCalls, *chunk.ToolCall)
			}
		}
		lastText = assistantText.String()
		messages = append(messages, agent.CompletionMessage{
			Role: "assistant", Content: lastText, ToolCalls: pendingCalls,
		})

		if len(pendingCalls) == 0 {
			break
		}

		toolResults := make([]models.ToolResult, 0, len(pendingCalls))
		for _, call := range pendingCalls {
			result, err := o.cfg.Registry.Execute(ctx, call.Name, call.Input)
			if err != nil {
				toolResults = append(toolResults, models.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true})
				continue
			}
			toolResults = append(toolResults, models.ToolResult{ToolCallID: call.ID, Content: result.Content, IsError: result.IsError})
		}
		messages = append(messages, agent.CompletionMessage{Role: "tool", ToolResults: toolResults})
	}

	if lastText == "" {
		return "", fmt.Errorf("dispatch_subagent %q: produced no report within %d rounds", tmpl.Name, maxSubagentRounds)
	}
	return lastText, nil
}
