package composition

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/oracleforge/pkg/models"
)

func TestSpawnTool_Execute(t *testing.T) {
	composer := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		prob := 0.4
		return &models.ForecastOutput{Forecast: models.Forecast{Probability: &prob}}, nil
	}, 5)
	tool := NewSpawnTool(composer)

	params, _ := json.Marshal(map[string]any{
		"subquestions": []map[string]any{{"question": "will X happen?"}},
	})
	res, err := tool.Execute(context.Background(), params)
	if err != nil || res.IsError {
		t.Fatalf("Execute failed: %v %+v", err, res)
	}

	var out Output
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.SuccessfulCount != 1 {
		t.Fatalf("expected 1 successful, got %+v", out)
	}
}

func TestSpawnTool_EmptyListErrors(t *testing.T) {
	composer := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		return &models.ForecastOutput{}, nil
	}, 5)
	tool := NewSpawnTool(composer)

	params, _ := json.Marshal(map[string]any{"subquestions": []map[string]any{}})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for empty subquestions list")
	}
}
