package models

import "time"

// QuestionType identifies the shape of forecast a question expects.
type QuestionType string

const (
	QuestionBinary         QuestionType = "binary"
	QuestionNumeric        QuestionType = "numeric"
	QuestionDiscrete       QuestionType = "discrete"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionDate           QuestionType = "date"
)

// Question is the platform's metadata for a single forecastable item.
//
// post_id is the URL-bearing container id; question_id is the internal id
// used by some endpoints. They coincide for single-question posts and
// diverge for group-question posts — callers must pass the correct one
// per endpoint.
type Question struct {
	PostID       int64        `json:"post_id"`
	QuestionID   int64        `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`

	Title               string `json:"title"`
	Description         string `json:"description"`
	ResolutionCriteria  string `json:"resolution_criteria"`
	FinePrint           string `json:"fine_print"`

	RangeMin            *float64 `json:"range_min,omitempty"`
	RangeMax            *float64 `json:"range_max,omitempty"`
	OpenLowerBound      bool     `json:"open_lower_bound"`
	OpenUpperBound      bool     `json:"open_upper_bound"`
	ZeroPoint           *float64 `json:"zero_point,omitempty"`
	InboundOutcomeCount int      `json:"inbound_outcome_count,omitempty"`

	Options []string `json:"options,omitempty"`

	PublishedAt           time.Time  `json:"published_at"`
	ScheduledCloseTime     time.Time  `json:"scheduled_close_time"`
	ScheduledResolveTime   time.Time  `json:"scheduled_resolve_time"`
	ActualResolutionTime   *time.Time `json:"actual_resolution_time,omitempty"`

	ResolutionString string `json:"resolution_string,omitempty"`
}

// IsLogScaled reports whether a numeric question's value axis should be
// mapped logarithmically rather than linearly.
func (q *Question) IsLogScaled() bool {
	return q.ZeroPoint != nil
}

// Factor is a single piece of evidence the model weighed, with its signed
// contribution to the forecast expressed as a logit delta.
type Factor struct {
	Description string  `json:"description"`
	Logit       float64 `json:"logit"`
	Confidence  float64 `json:"confidence"`
}

// ScenarioComponent is one mixture component of a numeric/discrete forecast
// expressed as a scenario rather than sparse percentiles.
type ScenarioComponent struct {
	Mode       float64 `json:"mode"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Weight     float64 `json:"weight"`
}

// Percentiles holds the six fixed percentile marks used for sparse numeric
// forecasts: 10/20/40/60/80/90, strictly increasing in value.
type Percentiles struct {
	P10 float64 `json:"p10"`
	P20 float64 `json:"p20"`
	P40 float64 `json:"p40"`
	P60 float64 `json:"p60"`
	P80 float64 `json:"p80"`
	P90 float64 `json:"p90"`
}

// Forecast is the model's structured output, tagged by the question's type.
// For numeric/discrete questions exactly one of Percentiles or Mixture is
// populated.
type Forecast struct {
	QuestionType QuestionType `json:"question_type"`
	Summary      string       `json:"summary"`
	Factors      []Factor     `json:"factors"`

	// binary
	Logit       *float64 `json:"logit,omitempty"`
	Probability *float64 `json:"probability,omitempty"`

	// numeric / discrete
	Percentiles *Percentiles        `json:"percentiles,omitempty"`
	Mixture     []ScenarioComponent `json:"mixture,omitempty"`

	// multiple_choice
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// ToolCallMetrics summarizes how many tool invocations occurred during a
// model session and how they resolved.
type ToolCallMetrics struct {
	Total   int `json:"total"`
	Errors  int `json:"errors"`
	Cached  int `json:"cached"`
	Retried int `json:"retried"`
}

// ForecastOutput packages a structured Forecast with run metadata.
type ForecastOutput struct {
	QuestionID    int64  `json:"question_id"`
	PostID        int64  `json:"post_id"`
	QuestionTitle string `json:"question_title"`

	Forecast Forecast `json:"forecast"`

	Reasoning        string   `json:"reasoning"`
	SourcesConsulted []string `json:"sources_consulted"`

	Duration    time.Duration   `json:"duration"`
	CostUSD     float64         `json:"cost_usd"`
	InputTokens int             `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	ToolMetrics ToolCallMetrics `json:"tool_metrics"`

	// CDF is populated for numeric/discrete questions: a dense,
	// standardized cumulative distribution with DefaultCDFSize points
	// (or InboundOutcomeCount+1 for discrete questions).
	CDF []float64 `json:"cdf,omitempty"`

	// Probability / Probabilities mirror the Forecast fields at the
	// resolution needed by the submission formatter.
	Probability   *float64           `json:"probability,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`

	RetrodictDate *time.Time `json:"retrodict_date,omitempty"`
}

// SavedForecast is the on-disk, append-only record of a forecast attempt.
type SavedForecast struct {
	ForecastOutput

	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	CommentedAt  *time.Time `json:"commented_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
}

// RunOptions configures a single Orchestrator.Run invocation.
type RunOptions struct {
	AllowSpawn      bool
	RetrodictCutoff *time.Time
	StreamThinking  bool
}
