package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/creditparse"
	"github.com/haasonsaas/oracleforge/internal/forecast/numeric"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/forecast/subagents"
	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/internal/tools/notes"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// Orchestrator runs the forecasting agent's model session for a single
// question, top-level or spawned.
type Orchestrator struct {
	cfg        Config
	composer   *composition.Composer
	dispatcher *subagents.Dispatcher
}

// New builds an Orchestrator from cfg. The returned Orchestrator has no
// spawn_subquestions support until EnableComposition is called, since the
// composer needs a reference back to Run that can't exist before
// construction.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg.withDefaults()}
}

// EnableComposition wires spawn_subquestions to recursively call back into
// this Orchestrator for each sub-question, with AllowSpawn forced false, and
// registers the resulting tool so assembleTools can find it by name.
func (o *Orchestrator) EnableComposition() *composition.Composer {
	o.composer = composition.NewComposer(o.runSubforecast, o.cfg.MaxSubforecastParallel)
	if o.cfg.Registry != nil {
		o.cfg.Registry.Register(composition.NewSpawnTool(o.composer))
	}
	return o.composer
}

func (o *Orchestrator) runSubforecast(ctx context.Context, qc composition.QuestionContext, opts models.RunOptions) (*models.ForecastOutput, error) {
	return o.Run(ctx, Input{PrebuiltQuestion: &qc, Options: opts})
}

// Run executes the full forecasting sequence: resolve the question, assemble
// the available tool set, run the model loop to a submit_forecast call,
// synthesize a CDF for numeric/discrete questions, and write a meta note.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*models.ForecastOutput, error) {
	start := time.Now()
	sessionID := newSessionID(in)

	if in.Options.RetrodictCutoff != nil {
		ctx = retrodict.WithConfig(ctx, retrodict.Config{ForecastDate: *in.Options.RetrodictCutoff})
	}

	qc, postID, questionID, err := o.resolveContext(ctx, in)
	if err != nil {
		return nil, &QuestionError{Phase: "resolve_context", Err: err}
	}

	tools, notesTool := o.assembleTools(ctx, in.Options.AllowSpawn, sessionID)
	submitTool := newSubmitForecastTool(qc.Type)
	tools = append(tools, submitTool)

	systemPrompt := o.buildSystemPrompt(ctx, qc)
	userPrompt := buildUserPrompt(qc)

	var hook *retrodict.Hook
	if cfg, ok := retrodict.FromContext(ctx); ok {
		hook = retrodict.NewHook(cfg, o.cfg.Wayback)
	}

	messages := []agent.CompletionMessage{{Role: "user", Content: userPrompt}}

	var toolMetrics models.ToolCallMetrics
	var reasoning strings.Builder
	var sourcesConsulted []string
	var totalInput, totalOutput int
	sawWriteMeta := false

	for round := 0; round < o.cfg.MaxToolRounds; round++ {
		req := &agent.CompletionRequest{
			Model:     o.cfg.Model,
			System:    systemPrompt,
			Messages:  messages,
			Tools:     tools,
			MaxTokens: o.cfg.MaxTokens,
		}

		chunks, err := o.cfg.Provider.Complete(ctx, req)
		if err != nil {
			return nil, classifyError(err)
		}

		var assistantText strings.Builder
		var pendingCalls []models.ToolCall
		for chunk := range chunks {
			if chunk.Error != nil {
				return nil, classifyError(chunk.Error)
			}
			if chunk.Text != "" {
				assistantText.WriteString(chunk.Text)
			}
			if chunk.ToolCall != nil {
				pendingCalls = append(pendingCalls, *chunk.ToolCall)
			}
			if chunk.Done {
				totalInput += chunk.InputTokens
				totalOutput += chunk.OutputTokens
			}
		}
		reasoning.WriteString(assistantText.String())
		messages = append(messages, agent.CompletionMessage{
			Role: "assistant", Content: assistantText.String(), ToolCalls: pendingCalls,
		})

		if len(pendingCalls) == 0 {
			break
		}

		toolResults, submitted := o.runToolCalls(ctx, pendingCalls, hook, submitTool, notesTool, &toolMetrics, &sourcesConsulted, &sawWriteMeta)
		messages = append(messages, agent.CompletionMessage{Role: "tool", ToolResults: toolResults})

		if submitted {
			break
		}
	}

	if !submitTool.captured {
		return nil, &QuestionError{Phase: "model_loop", Err: fmt.Errorf("model did not submit a structured forecast within %d rounds", o.cfg.MaxToolRounds)}
	}

	output := &models.ForecastOutput{
		QuestionID:       questionID,
		PostID:           postID,
		QuestionTitle:    qc.Title,
		Forecast:         submitTool.forecast,
		Reasoning:        reasoning.String(),
		SourcesConsulted: dedupStrings(sourcesConsulted),
		Duration:         time.Since(start),
		InputTokens:      totalInput,
		OutputTokens:     totalOutput,
		ToolMetrics:      toolMetrics,
		Probability:      submitTool.forecast.Probability,
		Probabilities:    submitTool.forecast.Probabilities,
	}
	if in.Options.RetrodictCutoff != nil {
		output.RetrodictDate = in.Options.RetrodictCutoff
	}

	if qc.Type == models.QuestionNumeric || qc.Type == models.QuestionDiscrete || qc.Type == models.QuestionDate {
		if cdf, err := synthesizeCDF(&submitTool.forecast, qc); err == nil {
			output.CDF = cdf
		}
	}

	if !sawWriteMeta && o.cfg.NotesStore != nil {
		_, _ = o.cfg.NotesStore.WriteMeta(ctx, sessionID, fallbackReflection(output, toolMetrics))
	}

	return output, nil
}

func newSessionID(in Input) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	suffix := hex.EncodeToString(buf)
	if in.PrebuiltQuestion != nil {
		return "sub_" + suffix
	}
	return fmt.Sprintf("%d_%s", in.PostID, suffix)
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if result := creditparse.Parse(err.Error()); result != nil {
		return &CreditExhaustedError{Message: result.Message, ResetTime: result.ResetTime}
	}
	return &QuestionError{Phase: "model_session", Err: err}
}

func dedupStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

var urlPattern = regexp.MustCompile(`https?://[^\s"')]+`)

func extractSources(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

func fallbackReflection(output *models.ForecastOutput, metrics models.ToolCallMetrics) string {
	var b strings.Builder
	b.WriteString("# Meta-Reflection (auto-generated)\n\n")
	b.WriteString("The model did not submit its own write_meta reflection; this is a fallback ")
	b.WriteString("summary assembled from the run's own output.\n\n")
	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", output.Forecast.Summary)
	fmt.Fprintf(&b, "## Tool usage\n\n%d calls, %d errors\n", metrics.Total, metrics.Errors)
	return b.String()
}

// notesToolRef is satisfied by notes.Tool; declared here to recognize
// write_meta calls without importing agent.Tool's concrete implementations.
type notesToolRef interface {
	Name() string
}

var _ notesToolRef = (*notes.Tool)(nil)

func isNotesWriteMeta(toolName string, params json.RawMessage) bool {
	if toolName != "notes" {
		return false
	}
	var in struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return false
	}
	return in.Mode == "write_meta"
}
