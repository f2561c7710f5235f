package composition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// SpawnTool adapts a Composer into spawn_subquestions, the only tool this
// package exposes to the model — decomposition and aggregation strategy are
// the model's call, not the tool's.
type SpawnTool struct {
	composer *Composer
}

// NewSpawnTool builds the spawn_subquestions tool bound to composer.
func NewSpawnTool(composer *Composer) *SpawnTool {
	return &SpawnTool{composer: composer}
}

func (t *SpawnTool) Name() string { return "spawn_subquestions" }

func (t *SpawnTool) Description() string {
	return "Decompose this question into independent sub-questions and forecast each in " +
		"parallel. Returns every sub-forecast, successful or failed — you decide how to " +
		"combine them. Not available from within a sub-forecast (no recursive spawning)."
}

func (t *SpawnTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"subquestions": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"question": {"type": "string"},
						"context": {"type": "string"},
						"weight": {"type": "number"},
						"type": {"type": "string", "enum": ["binary", "numeric", "discrete", "multiple_choice"]},
						"options": {"type": "array", "items": {"type": "string"}},
						"numeric_bounds": {"type": "object"}
					},
					"required": ["question"]
				}
			}
		},
		"required": ["subquestions"]
	}`)
}

type spawnInput struct {
	Subquestions []SubQuestion `json:"subquestions"`
}

func (t *SpawnTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in spawnInput
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid spawn_subquestions params: %v", err), IsError: true}, nil
	}

	out, err := t.composer.Spawn(ctx, in.Subquestions)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(encoded)}, nil
}
