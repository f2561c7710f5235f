package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// resolveContext builds the question context to forecast against, either
// from a pre-built sub-question context or by fetching from the platform.
// Returns the resolved context plus the post/question IDs to attach to the
// final output (both zero for sub-forecasts, which are never submitted).
func (o *Orchestrator) resolveContext(ctx context.Context, in Input) (composition.QuestionContext, int64, int64, error) {
	if in.PrebuiltQuestion != nil {
		return *in.PrebuiltQuestion, 0, 0, nil
	}

	if in.PostID == 0 {
		return composition.QuestionContext{}, 0, 0, fmt.Errorf("either post ID or a pre-built question context must be provided")
	}
	if o.cfg.MetaculusClient == nil {
		return composition.QuestionContext{}, 0, 0, fmt.Errorf("no metaculus client configured")
	}

	question, err := o.cfg.MetaculusClient.GetQuestion(ctx, in.PostID)
	if err != nil {
		return composition.QuestionContext{}, 0, 0, fmt.Errorf("fetch question %d: %w", in.PostID, err)
	}

	qc := composition.QuestionContext{
		Title:              question.Title,
		Type:               question.QuestionType,
		Description:        question.Description,
		ResolutionCriteria: question.ResolutionCriteria,
		FinePrint:          question.FinePrint,
		Options:            question.Options,
	}
	if question.QuestionType == models.QuestionNumeric || question.QuestionType == models.QuestionDiscrete || question.QuestionType == models.QuestionDate {
		bounds := map[string]interface{}{
			"open_lower_bound": question.OpenLowerBound,
			"open_upper_bound": question.OpenUpperBound,
		}
		if question.RangeMin != nil {
			bounds["range_min"] = *question.RangeMin
		}
		if question.RangeMax != nil {
			bounds["range_max"] = *question.RangeMax
		}
		if question.ZeroPoint != nil {
			bounds["zero_point"] = *question.ZeroPoint
		}
		if question.InboundOutcomeCount > 0 {
			bounds["cdf_size"] = question.InboundOutcomeCount + 1
		}
		qc.NumericBounds = bounds
	}

	return qc, question.PostID, question.QuestionID, nil
}

// buildSystemPrompt assembles the system prompt: today's date (or the
// retrodict cutoff, so the model never reasons from its training cutoff
// instead of the question's actual "now"), and the set of tools available.
func (o *Orchestrator) buildSystemPrompt(ctx context.Context, qc composition.QuestionContext) string {
	var b strings.Builder
	b.WriteString(forecastingSystemPreamble)

	today := time.Now().UTC()
	if cfg, ok := retrodict.FromContext(ctx); ok {
		today = cfg.ForecastDate
		fmt.Fprintf(&b, "\n\nYou are forecasting as of %s. You must reason only from information "+
			"available at or before this date — tool results from after this date have been blocked "+
			"or rewritten to archived snapshots. Do not use any knowledge you have of what actually "+
			"happened after this date.\n", today.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "\n\nToday's date is %s.\n", today.Format("2006-01-02"))
	}

	fmt.Fprintf(&b, "\n%s\n", typeSpecificGuidance(qc.Type))
	b.WriteString("\nOnce you have finished researching, call submit_forecast exactly once with your final structured forecast.\n")
	return b.String()
}

const forecastingSystemPreamble = `You are an expert forecaster producing calibrated probability estimates for real-world questions on a tournament forecasting platform. Research thoroughly using the tools available, weigh evidence explicitly as factors, and write a write_meta reflection on your process before finishing.`

func typeSpecificGuidance(qt models.QuestionType) string {
	switch qt {
	case models.QuestionBinary:
		return "This is a binary question: submit a logit and a probability between 0 and 1."
	case models.QuestionMultipleChoice:
		return "This is a multiple-choice question: submit a probability for every option, summing to 1.0."
	case models.QuestionNumeric, models.QuestionDiscrete, models.QuestionDate:
		return "This is a numeric question: submit either sparse percentiles (10/20/40/60/80/90) or a weighted mixture of scenarios."
	default:
		return ""
	}
}

func buildUserPrompt(qc composition.QuestionContext) string {
	encoded, _ := json.MarshalIndent(qc, "", "  ")
	return fmt.Sprintf("Analyze this forecasting question and provide your forecast:\n\n%s", string(encoded))
}
