package metaculus

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/haasonsaas/oracleforge/internal/forecast/numeric"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// SubmissionError indicates a ForecastOutput could not be converted into a
// valid wire payload for its declared question type.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission formatter: %s", e.Reason)
}

// CreateForecastPayload converts a ForecastOutput into the platform's wire
// payload, bit-exact by question type. binary requires Probability;
// multiple_choice requires Probabilities; numeric/discrete requires a CDF of
// exactly the expected length.
func CreateForecastPayload(output *models.ForecastOutput) (map[string]any, error) {
	switch output.Forecast.QuestionType {
	case models.QuestionBinary:
		if output.Probability == nil {
			return nil, &SubmissionError{Reason: "binary forecast missing probability"}
		}
		if *output.Probability <= 0 || *output.Probability >= 1 {
			return nil, &SubmissionError{Reason: "binary probability must lie in (0,1)"}
		}
		return map[string]any{
			"probability_yes":               *output.Probability,
			"probability_yes_per_category":  nil,
			"continuous_cdf":                nil,
		}, nil

	case models.QuestionMultipleChoice:
		if len(output.Probabilities) == 0 {
			return nil, &SubmissionError{Reason: "multiple_choice forecast missing probabilities"}
		}
		sum := 0.0
		for _, p := range output.Probabilities {
			sum += p
		}
		if sum < 0.99 || sum > 1.01 {
			return nil, &SubmissionError{Reason: fmt.Sprintf("multiple_choice probabilities sum to %.4f, expected 1.0", sum)}
		}
		return map[string]any{
			"probability_yes":              nil,
			"probability_yes_per_category": output.Probabilities,
			"continuous_cdf":               nil,
		}, nil

	case models.QuestionNumeric, models.QuestionDiscrete:
		if len(output.CDF) == 0 {
			return nil, &SubmissionError{Reason: "numeric/discrete forecast missing cdf"}
		}
		if output.Forecast.QuestionType == models.QuestionNumeric && len(output.CDF) != numeric.DefaultCDFSize {
			return nil, &SubmissionError{Reason: fmt.Sprintf("numeric cdf must have exactly %d points, got %d", numeric.DefaultCDFSize, len(output.CDF))}
		}
		for _, v := range output.CDF {
			if v < 0 || v > 1 {
				return nil, &SubmissionError{Reason: "cdf values must lie in [0,1]"}
			}
		}
		return map[string]any{
			"probability_yes":              nil,
			"probability_yes_per_category":  nil,
			"continuous_cdf":                output.CDF,
		}, nil

	default:
		return nil, &SubmissionError{Reason: fmt.Sprintf("unknown question type %q", output.Forecast.QuestionType)}
	}
}

// SubmitForecast posts a single-element forecast array to the platform's
// forecast endpoint. IsAlreadyClosed on the returned *APIError distinguishes
// a closed question from any other rejection.
func (c *Client) SubmitForecast(ctx context.Context, output *models.ForecastOutput) error {
	payload, err := CreateForecastPayload(output)
	if err != nil {
		return err
	}
	payload["question"] = output.QuestionID

	resp, err := c.do(ctx, http.MethodPost, "/api/questions/forecast/", []map[string]any{payload})
	if err != nil {
		return fmt.Errorf("submit forecast for question %d: %w", output.QuestionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readError(resp)
	}
	return nil
}

// commentPayload is the platform's comment-creation request body.
type commentPayload struct {
	Text             string `json:"text"`
	Parent           *int64 `json:"parent"`
	IncludedForecast bool   `json:"included_forecast"`
	IsPrivate        bool   `json:"is_private"`
	OnPost           int64  `json:"on_post"`
}

// PostComment attaches a reasoning comment to a post (not a question_id —
// comments are tied to the post).
func (c *Client) PostComment(ctx context.Context, postID int64, text string, includeForecast, isPrivate bool) error {
	body := commentPayload{
		Text:             text,
		Parent:           nil,
		IncludedForecast: includeForecast,
		IsPrivate:        isPrivate,
		OnPost:           postID,
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/comments/create/", body)
	if err != nil {
		return fmt.Errorf("post comment on post %d: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readError(resp)
	}
	return nil
}

// FormatReasoningComment renders a ForecastOutput as a markdown comment:
// a summary, the point estimate, each factor signed by its logit
// contribution, and a source count.
func FormatReasoningComment(output *models.ForecastOutput) string {
	var b strings.Builder

	b.WriteString("## Forecast Summary\n\n")
	if output.Forecast.Summary != "" {
		b.WriteString(output.Forecast.Summary)
		b.WriteString("\n\n")
	}

	switch output.Forecast.QuestionType {
	case models.QuestionBinary:
		if output.Probability != nil {
			fmt.Fprintf(&b, "**Probability:** %.1f%%\n\n", *output.Probability*100)
		}
	case models.QuestionMultipleChoice:
		if len(output.Probabilities) > 0 {
			b.WriteString("**Probabilities:**\n\n")
			keys := make([]string, 0, len(output.Probabilities))
			for k := range output.Probabilities {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "- %s: %.1f%%\n", k, output.Probabilities[k]*100)
			}
			b.WriteString("\n")
		}
	case models.QuestionNumeric, models.QuestionDiscrete:
		if p := output.Forecast.Percentiles; p != nil {
			fmt.Fprintf(&b, "**80%% CI:** %.4g – %.4g (40th–60th pct: %.4g – %.4g)\n\n", p.P10, p.P90, p.P40, p.P60)
		} else if len(output.Forecast.Mixture) > 0 {
			fmt.Fprintf(&b, "**Distribution:** mixture of %d scenarios\n\n", len(output.Forecast.Mixture))
		}
	}

	if len(output.Forecast.Factors) > 0 {
		b.WriteString("## Key Factors\n\n")
		for _, f := range output.Forecast.Factors {
			sign := "+"
			if f.Logit < 0 {
				sign = ""
			}
			fmt.Fprintf(&b, "- %s (%s%.2f logit)\n", f.Description, sign, f.Logit)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "*Sources consulted: %d*\n", len(output.SourcesConsulted))
	return b.String()
}

