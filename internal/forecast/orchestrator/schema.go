package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// submitForecastTool is the model's final action: a per-run, type-specific
// structured-output schema exposed as a tool call rather than a provider
// "response_format" (agent.LLMProvider has no such field), so a normal
// tool-calling round trip captures the structured forecast the same way any
// other tool result would.
type submitForecastTool struct {
	questionType models.QuestionType

	mu       sync.Mutex
	captured bool
	forecast models.Forecast
}

func newSubmitForecastTool(qt models.QuestionType) *submitForecastTool {
	return &submitForecastTool{questionType: qt}
}

func (t *submitForecastTool) Name() string { return "submit_forecast" }

func (t *submitForecastTool) Description() string {
	return "Submit your final structured forecast. Call this exactly once, after you have " +
		"finished researching — this ends the session."
}

func (t *submitForecastTool) Schema() json.RawMessage {
	factorSchema := `{
		"type": "object",
		"properties": {
			"description": {"type": "string"},
			"logit": {"type": "number"},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1}
		},
		"required": ["description", "logit"]
	}`

	switch t.questionType {
	case models.QuestionBinary:
		return json.RawMessage(fmt.Sprintf(`{
			"type": "object",
			"properties": {
				"summary": {"type": "string"},
				"factors": {"type": "array", "items": %s},
				"logit": {"type": "number"},
				"probability": {"type": "number", "minimum": 0, "maximum": 1}
			},
			"required": ["summary", "logit", "probability"]
		}`, factorSchema))

	case models.QuestionMultipleChoice:
		return json.RawMessage(fmt.Sprintf(`{
			"type": "object",
			"properties": {
				"summary": {"type": "string"},
				"factors": {"type": "array", "items": %s},
				"probabilities": {"type": "object", "additionalProperties": {"type": "number"}}
			},
			"required": ["summary", "probabilities"]
		}`, factorSchema))

	default: // numeric, discrete, date
		return json.RawMessage(fmt.Sprintf(`{
			"type": "object",
			"properties": {
				"summary": {"type": "string"},
				"factors": {"type": "array", "items": %s},
				"percentile_10": {"type": "number"},
				"percentile_20": {"type": "number"},
				"percentile_40": {"type": "number"},
				"percentile_60": {"type": "number"},
				"percentile_80": {"type": "number"},
				"percentile_90": {"type": "number"},
				"mixture": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"scenario": {"type": "string"},
							"mode": {"type": "number"},
							"lower_bound": {"type": "number"},
							"upper_bound": {"type": "number"},
							"weight": {"type": "number", "minimum": 0, "maximum": 1}
						},
						"required": ["mode", "lower_bound", "upper_bound", "weight"]
					}
				}
			},
			"required": ["summary"]
		}`, factorSchema))
	}
}

// Execute is never reached through agent.ToolRegistry — the orchestrator
// loop intercepts submit_forecast calls directly, since it needs to stop the
// loop rather than feed a tool result back to the model. It's implemented
// anyway so submitForecastTool satisfies agent.Tool and can be listed in the
// request's Tools slice.
func (t *submitForecastTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: "forecast recorded"}, nil
}

// capture validates and stores the model's structured forecast input.
func (t *submitForecastTool) capture(raw json.RawMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var in struct {
		Summary      string              `json:"summary"`
		Factors      []models.Factor     `json:"factors"`
		Logit        *float64            `json:"logit"`
		Probability  *float64            `json:"probability"`
		Probabilities map[string]float64 `json:"probabilities"`
		Percentile10 *float64            `json:"percentile_10"`
		Percentile20 *float64            `json:"percentile_20"`
		Percentile40 *float64            `json:"percentile_40"`
		Percentile60 *float64            `json:"percentile_60"`
		Percentile80 *float64            `json:"percentile_80"`
		Percentile90 *float64            `json:"percentile_90"`
		Mixture      []models.ScenarioComponent `json:"mixture"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("invalid submit_forecast input: %w", err)
	}

	f := models.Forecast{
		QuestionType: t.questionType,
		Summary:      in.Summary,
		Factors:      in.Factors,
	}

	switch t.questionType {
	case models.QuestionBinary:
		if in.Probability == nil {
			return fmt.Errorf("binary forecast requires probability")
		}
		f.Logit = in.Logit
		f.Probability = in.Probability

	case models.QuestionMultipleChoice:
		if len(in.Probabilities) == 0 {
			return fmt.Errorf("multiple_choice forecast requires probabilities")
		}
		f.Probabilities = in.Probabilities

	default:
		if len(in.Mixture) > 0 {
			f.Mixture = in.Mixture
		} else if in.Percentile10 != nil && in.Percentile20 != nil && in.Percentile40 != nil &&
			in.Percentile60 != nil && in.Percentile80 != nil && in.Percentile90 != nil {
			f.Percentiles = &models.Percentiles{
				P10: *in.Percentile10, P20: *in.Percentile20, P40: *in.Percentile40,
				P60: *in.Percentile60, P80: *in.Percentile80, P90: *in.Percentile90,
			}
		} else {
			return fmt.Errorf("numeric/discrete forecast requires either percentiles or a mixture")
		}
	}

	t.forecast = f
	t.captured = true
	return nil
}
