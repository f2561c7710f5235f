package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

// entry is one past attempt as surfaced to the model: only the fields
// relevant to its question type, with resolution hidden whenever a
// retrodict cutoff is active (the model must not see how a question it's
// retrodicting eventually resolved).
type entry struct {
	Timestamp     string             `json:"timestamp"`
	QuestionType  string             `json:"question_type"`
	Summary       string             `json:"summary"`
	Resolution    string             `json:"resolution,omitempty"`
	Probability   *float64           `json:"probability,omitempty"`
	Logit         *float64           `json:"logit,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Median        *float64           `json:"median,omitempty"`
}

// Tool implements get_prediction_history: past forecasts this agent made
// for a question, read back from the local Store rather than the platform
// (the platform has no per-agent forecast history endpoint).
type Tool struct {
	store *Store
}

// NewTool wraps store as the get_prediction_history tool.
func NewTool(store *Store) *Tool {
	return &Tool{store: store}
}

func (t *Tool) Name() string { return "get_prediction_history" }

func (t *Tool) Description() string {
	return "Get past forecasts made for a Metaculus question. Returns your previous forecasts " +
		"with timestamps, probabilities/medians, and summaries. Useful for tracking how your " +
		"forecasts evolved and learning from resolved questions."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"post_id": {"type": "integer", "description": "Platform post ID"}
		},
		"required": ["post_id"]
	}`)
}

// recordTimestamp recovers the save time encoded in a Store record's file
// name (<unix-nanos>.json); a malformed name resolves to the zero time
// rather than erroring, since it only affects display/filtering.
func recordTimestamp(fileName string) time.Time {
	nanos, err := strconv.ParseInt(strings.TrimSuffix(fileName, ".json"), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		PostID int64 `json:"post_id"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid get_prediction_history params: %v", err), IsError: true}, nil
	}

	records, err := t.store.ListByPost(ctx, in.PostID)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	cfg, retrodictActive := retrodict.FromContext(ctx)

	entries := make([]entry, 0, len(records))
	var title string
	for _, rec := range records {
		f := rec.Forecast
		savedAt := recordTimestamp(rec.FileName)
		if retrodictActive && !savedAt.Before(cfg.ForecastDate) {
			continue
		}

		title = f.QuestionTitle
		e := entry{
			Timestamp:    savedAt.UTC().Format(time.RFC3339),
			QuestionType: string(f.Forecast.QuestionType),
			Summary:      f.Forecast.Summary,
		}
		if !retrodictActive {
			e.Resolution = f.Resolution
		}
		switch f.Forecast.QuestionType {
		case "binary":
			e.Probability = f.Forecast.Probability
			e.Logit = f.Forecast.Logit
		case "multiple_choice":
			e.Probabilities = f.Forecast.Probabilities
		case "numeric", "discrete":
			if f.Forecast.Percentiles != nil {
				median := f.Forecast.Percentiles.P40 + (f.Forecast.Percentiles.P60-f.Forecast.Percentiles.P40)/2
				e.Median = &median
			}
		}
		entries = append(entries, e)
	}

	result := map[string]any{
		"post_id":        in.PostID,
		"question_title": title,
		"forecasts":      entries,
		"count":          len(entries),
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(encoded)}, nil
}
