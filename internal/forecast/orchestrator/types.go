// Package orchestrator runs the forecasting agent loop: resolve a question,
// assemble an availability-filtered tool set, drive an LLM session to
// completion routing tool calls through the registry, and assemble the
// structured ForecastOutput. It is a new, self-contained loop rather than a
// reuse of a chat-session loop — there is no message history to persist
// across turns, only a single run's worth of structured output.
package orchestrator

import (
	"time"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/internal/tools/metaculus"
	"github.com/haasonsaas/oracleforge/internal/tools/notes"
	"github.com/haasonsaas/oracleforge/internal/tools/policy"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// Config wires an Orchestrator's dependencies. Provider, Model, and Registry
// are required; the rest have workable defaults or are simply unused when nil.
type Config struct {
	Provider agent.LLMProvider
	Model    string
	Registry *agent.ToolRegistry

	Credentials     policy.Credentials
	MetaculusClient *metaculus.Client
	NotesStore      *notes.Store
	Wayback         retrodict.WaybackChecker

	// MaxToolRounds bounds the number of model<->tool round-trips before a
	// run is treated as stuck. Defaults to 40.
	MaxToolRounds int
	// MaxTokens bounds each completion request's response length. Defaults
	// to 8192.
	MaxTokens int
	// MaxSubforecastParallel bounds spawn_subquestions' concurrency. Defaults
	// to 5 (see composition.NewComposer).
	MaxSubforecastParallel int
}

func (c Config) withDefaults() Config {
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 40
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 8192
	}
	return c
}

// Input is a single Orchestrator.Run invocation: either a top-level question
// by post ID, or a pre-built context for a sub-forecast spawned by
// spawn_subquestions.
type Input struct {
	PostID           int64
	PrebuiltQuestion *composition.QuestionContext
	Options          models.RunOptions
}

// QuestionError wraps a failure with the phase it occurred in, so callers
// can distinguish "model reported an error" (retryable) from structural
// failures (bad question id, no provider configured).
type QuestionError struct {
	Phase string
	Err   error
}

func (e *QuestionError) Error() string { return e.Phase + ": " + e.Err.Error() }
func (e *QuestionError) Unwrap() error { return e.Err }

// CreditExhaustedError signals the model provider reported exhausted usage
// credits, with the parsed reset time (if recoverable) so a caller can sleep
// and retry instead of treating the run as a hard failure.
type CreditExhaustedError struct {
	Message   string
	ResetTime *time.Time
}

func (e *CreditExhaustedError) Error() string { return e.Message }
