package composition

import (
	"context"
	"fmt"
	"testing"

	"github.com/haasonsaas/oracleforge/pkg/models"
)

func TestSpawn_NoSubquestionsReturnsError(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		return nil, nil
	}, 5)
	if _, err := c.Spawn(context.Background(), nil); err != ErrNoSubquestions {
		t.Fatalf("expected ErrNoSubquestions, got %v", err)
	}
}

func TestSpawn_AllSucceed(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		prob := 0.6
		return &models.ForecastOutput{Forecast: models.Forecast{Summary: "ok", Probability: &prob}}, nil
	}, 5)

	out, err := c.Spawn(context.Background(), []SubQuestion{
		{Question: "will X happen?"},
		{Question: "will Y happen?"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if out.SuccessfulCount != 2 || out.FailedCount != 0 {
		t.Fatalf("expected 2 successful 0 failed, got %+v", out)
	}
	for _, r := range out.Subforecasts {
		if r.Probability == nil || *r.Probability != 0.6 {
			t.Errorf("expected probability 0.6, got %+v", r)
		}
	}
}

func TestSpawn_PartialFailureStillReturnsSuccessful(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		if qc.Title == "bad" {
			return nil, fmt.Errorf("boom")
		}
		prob := 0.3
		return &models.ForecastOutput{Forecast: models.Forecast{Probability: &prob}}, nil
	}, 5)

	out, err := c.Spawn(context.Background(), []SubQuestion{
		{Question: "bad"},
		{Question: "good"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if out.SuccessfulCount != 1 || out.FailedCount != 1 {
		t.Fatalf("expected 1 successful 1 failed, got %+v", out)
	}
}

func TestSpawn_AllFailReturnsError(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		return nil, fmt.Errorf("boom")
	}, 5)

	if _, err := c.Spawn(context.Background(), []SubQuestion{{Question: "a"}, {Question: "b"}}); err == nil {
		t.Fatal("expected error when all sub-forecasts fail")
	}
}

func TestSpawn_DefaultsWeightAndType(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		if qc.Type != models.QuestionBinary {
			t.Errorf("expected default type binary, got %v", qc.Type)
		}
		return &models.ForecastOutput{}, nil
	}, 5)

	out, err := c.Spawn(context.Background(), []SubQuestion{{Question: "q"}})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if out.Subforecasts[0].Weight != 1.0 {
		t.Errorf("expected default weight 1.0, got %v", out.Subforecasts[0].Weight)
	}
}

func TestSpawn_AllowSpawnFalsePreventsRecursion(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		if opts.AllowSpawn {
			t.Error("expected AllowSpawn false for sub-forecasts")
		}
		return &models.ForecastOutput{}, nil
	}, 5)
	if _, err := c.Spawn(context.Background(), []SubQuestion{{Question: "q"}}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
}

func TestSpawn_NumericMedianFromPercentiles(t *testing.T) {
	c := NewComposer(func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
		return &models.ForecastOutput{Forecast: models.Forecast{
			Percentiles: &models.Percentiles{P10: 1, P20: 2, P40: 4, P60: 6, P80: 8, P90: 9},
		}}, nil
	}, 5)
	out, err := c.Spawn(context.Background(), []SubQuestion{{Question: "q", Type: models.QuestionNumeric}})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	r := out.Subforecasts[0]
	if r.Median == nil || *r.Median != 5 {
		t.Fatalf("expected median 5, got %v", r.Median)
	}
	if r.ConfidenceInterval != [2]float64{1, 9} {
		t.Fatalf("expected CI [1,9], got %v", r.ConfidenceInterval)
	}
}
