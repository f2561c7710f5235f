// Package composition implements spawn_subquestions: decomposing a
// forecasting question into independent sub-questions and forecasting each
// in parallel, with no automatic aggregation — the calling agent decides
// how to synthesize the sub-forecasts it gets back.
package composition

import (
	"context"
	"fmt"
	"sync"

	"github.com/haasonsaas/oracleforge/internal/ratelimit"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// SubQuestion is one decomposed question to forecast independently.
type SubQuestion struct {
	Question      string                 `json:"question"`
	Context        string                 `json:"context,omitempty"`
	Weight         float64                `json:"weight,omitempty"`
	Type           models.QuestionType    `json:"type,omitempty"`
	Options        []string               `json:"options,omitempty"`
	NumericBounds  map[string]interface{} `json:"numeric_bounds,omitempty"`
}

// SubForecastResult is a single sub-forecast outcome, success or failure.
// Only one of the type-specific fields is populated, matching Type.
type SubForecastResult struct {
	Question string  `json:"question"`
	Type     models.QuestionType `json:"type"`
	Summary  string  `json:"summary,omitempty"`
	Weight   float64 `json:"weight"`
	Error    string  `json:"error,omitempty"`

	Probability       *float64            `json:"probability,omitempty"`
	Median            *float64            `json:"median,omitempty"`
	ConfidenceInterval [2]float64         `json:"confidence_interval,omitempty"`
	Percentiles       *models.Percentiles `json:"percentiles,omitempty"`
	Probabilities     map[string]float64  `json:"probabilities,omitempty"`
}

// Output is spawn_subquestions' full return payload.
type Output struct {
	Subforecasts   []SubForecastResult `json:"subforecasts"`
	SuccessfulCount int                `json:"successful_count"`
	FailedCount     int                `json:"failed_count"`
}

// QuestionContext is the minimal question shape a sub-forecast is run
// against, built from a SubQuestion rather than a real platform Question
// (sub-questions have no post_id/question_id — they're never submitted).
type QuestionContext struct {
	Title              string
	Type               models.QuestionType
	Description        string
	ResolutionCriteria string
	FinePrint          string
	Options            []string
	NumericBounds      map[string]interface{}
}

// RunForecastFn recursively invokes the forecasting orchestrator for a
// sub-question. Accepting this as an injected function (rather than a
// direct orchestrator dependency) avoids a composition<->orchestrator
// import cycle, since the orchestrator's spawn_subquestions tool adapter
// is itself built on this package.
type RunForecastFn func(ctx context.Context, qc QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error)

// Composer runs spawn_subquestions against an injected RunForecastFn, with
// a concurrency cap shared across sub-forecasts spawned from a single call.
type Composer struct {
	runForecast RunForecastFn
	sem         *ratelimit.Semaphore
}

// NewComposer builds a Composer. maxParallel bounds how many sub-forecasts
// run concurrently; values <= 0 default to 5.
func NewComposer(runForecast RunForecastFn, maxParallel int) *Composer {
	if maxParallel <= 0 {
		maxParallel = 5
	}
	return &Composer{runForecast: runForecast, sem: ratelimit.NewSemaphore(maxParallel)}
}

// ErrNoSubquestions is returned when Spawn is called with an empty list.
var ErrNoSubquestions = fmt.Errorf("no subquestions provided")

// Spawn forecasts every sub-question in parallel and returns all results —
// successful or failed — without aggregation. It never cancels sibling
// sub-forecasts when one fails (asyncio.gather semantics, not
// cancel-on-first-error): a single bad sub-question must not sink the
// rest. Only returns an error if every sub-forecast failed.
func (c *Composer) Spawn(ctx context.Context, subquestions []SubQuestion) (*Output, error) {
	if len(subquestions) == 0 {
		return nil, ErrNoSubquestions
	}

	results := make([]SubForecastResult, len(subquestions))
	var wg sync.WaitGroup
	for i, sq := range subquestions {
		wg.Add(1)
		go func(i int, sq SubQuestion) {
			defer wg.Done()
			results[i] = c.runSubforecast(ctx, sq)
		}(i, sq)
	}
	wg.Wait()

	successful := 0
	var errs []string
	for _, r := range results {
		if r.Error == "" {
			successful++
		} else {
			errs = append(errs, r.Error)
		}
	}
	failed := len(results) - successful

	if successful == 0 {
		return nil, fmt.Errorf("all sub-forecasts failed: %v", errs)
	}

	return &Output{
		Subforecasts:    results,
		SuccessfulCount: successful,
		FailedCount:     failed,
	}, nil
}

func (c *Composer) runSubforecast(ctx context.Context, sq SubQuestion) SubForecastResult {
	questionType := sq.Type
	if questionType == "" {
		questionType = models.QuestionBinary
	}
	weight := sq.Weight
	if weight == 0 {
		weight = 1.0
	}

	result := SubForecastResult{Question: sq.Question, Type: questionType, Weight: weight}

	if err := c.sem.Acquire(ctx); err != nil {
		result.Error = err.Error()
		return result
	}
	defer c.sem.Release()

	qc := QuestionContext{
		Title:       sq.Question,
		Type:        questionType,
		Description: sq.Context,
	}
	if questionType == models.QuestionMultipleChoice {
		qc.Options = sq.Options
	}
	if questionType == models.QuestionNumeric || questionType == models.QuestionDiscrete {
		qc.NumericBounds = sq.NumericBounds
	}

	out, err := c.runForecast(ctx, qc, models.RunOptions{AllowSpawn: false})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Summary = out.Forecast.Summary
	switch questionType {
	case models.QuestionBinary:
		result.Probability = out.Forecast.Probability
	case models.QuestionNumeric, models.QuestionDiscrete:
		if p := out.Forecast.Percentiles; p != nil {
			result.Percentiles = p
			median := (p.P40 + p.P60) / 2
			result.Median = &median
			result.ConfidenceInterval = [2]float64{p.P10, p.P90}
		}
	case models.QuestionMultipleChoice:
		result.Probabilities = out.Forecast.Probabilities
	}
	return result
}
