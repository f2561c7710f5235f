package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/tools/notes"
	"github.com/haasonsaas/oracleforge/internal/tools/policy"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// profileFor picks the tool-policy profile for this run: sub-forecasts never
// get spawn_subquestions (no recursive spawning), and retrodict runs swap
// live-only research tools for the archive-aware retrodict profile.
func profileFor(retrodictMode, allowSpawn bool) string {
	switch {
	case retrodictMode:
		return "retrodict_forecaster"
	case !allowSpawn:
		return "sub_forecaster"
	default:
		return "forecaster"
	}
}

// assembleTools filters the registry's tools down to what this run's
// credentials and mode allow, and builds a session-scoped notes tool (its
// write_meta destination is bound to this run's session ID, so it can't be
// shared across runs via the global registry).
func (o *Orchestrator) assembleTools(ctx context.Context, allowSpawn bool, sessionID string) ([]agent.Tool, *notes.Tool) {
	avail := policy.FromContext(ctx, o.cfg.Credentials)
	profile := profileFor(retrodict.IsActive(ctx), allowSpawn)
	allowedNames := make(map[string]bool)
	for _, name := range avail.GetAllowedTools(profile, allowSpawn) {
		allowedNames[name] = true
	}

	var tools []agent.Tool
	if o.cfg.Registry != nil {
		for _, t := range o.cfg.Registry.AsLLMTools() {
			if t.Name() == "notes" {
				continue
			}
			if allowedNames[t.Name()] {
				tools = append(tools, t)
			}
		}
	}

	var notesTool *notes.Tool
	if o.cfg.NotesStore != nil && allowedNames["notes"] {
		notesTool = notes.NewTool(o.cfg.NotesStore, sessionID)
		tools = append(tools, notesTool)
	}

	return tools, notesTool
}

// runToolCalls executes every pending tool call from one model turn,
// applying the retrodict hook first, routing the session-scoped notes tool
// directly (bypassing the shared registry), and intercepting submit_forecast
// to stop the loop rather than feed a result back to the model.
func (o *Orchestrator) runToolCalls(
	ctx context.Context,
	calls []models.ToolCall,
	hook *retrodict.Hook,
	submitTool *submitForecastTool,
	notesTool *notes.Tool,
	metrics *models.ToolCallMetrics,
	sources *[]string,
	sawWriteMeta *bool,
) ([]models.ToolResult, bool) {
	var results []models.ToolResult
	submitted := false

	for _, call := range calls {
		if call.Name == submitTool.Name() {
			if err := submitTool.capture(call.Input); err != nil {
				results = append(results, models.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true})
				continue
			}
			results = append(results, models.ToolResult{ToolCallID: call.ID, Content: "forecast recorded"})
			submitted = true
			continue
		}

		params := call.Input
		if hook != nil {
			decision, err := hook.Evaluate(ctx, call.Name, inputToMap(params))
			if err != nil {
				metrics.Errors++
				results = append(results, models.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true})
				continue
			}
			switch decision.Action {
			case retrodict.Deny:
				metrics.Total++
				metrics.Errors++
				results = append(results, models.ToolResult{ToolCallID: call.ID, Content: decision.Reason, IsError: true})
				continue
			case retrodict.Modify:
				if encoded, err := json.Marshal(decision.ModifiedInput); err == nil {
					params = encoded
				}
			}
		}

		if call.Name == "notes" && isNotesWriteMeta(call.Name, params) {
			*sawWriteMeta = true
		}

		var result *agent.ToolResult
		var err error
		switch {
		case call.Name == "notes" && notesTool != nil:
			result, err = notesTool.Execute(ctx, params)
		default:
			result, err = o.cfg.Registry.Execute(ctx, call.Name, params)
		}

		metrics.Total++
		if err != nil {
			metrics.Errors++
			results = append(results, models.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true})
			continue
		}
		if result.IsError {
			metrics.Errors++
		}
		*sources = append(*sources, extractSources(result.Content)...)
		results = append(results, models.ToolResult{ToolCallID: call.ID, Content: result.Content, IsError: result.IsError})
	}

	return results, submitted
}

func inputToMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return m
}
