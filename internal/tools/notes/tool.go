package notes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// Tool adapts a Store into the single mode-dispatched "notes" tool the
// forecasting agent calls: one name, six modes (list/search/read/write/
// write_meta/write_report), mirroring the original MCP tool's shape rather
// than splitting each mode into its own tool.
type Tool struct {
	store     *Store
	sessionID string
}

// NewTool builds the notes tool bound to store. sessionID scopes write_meta
// calls to the current forecast session; it is empty for contexts (such as
// ad-hoc CLI runs) where write_meta should be disabled.
func NewTool(store *Store, sessionID string) *Tool {
	return &Tool{store: store, sessionID: sessionID}
}

func (t *Tool) Name() string { return "notes" }

func (t *Tool) Description() string {
	return "Read and write forecasting research notes. Modes: list, search, read, write, " +
		"write_meta (REQUIRED once per session, write-only process reflection), write_report " +
		"(long-form markdown readable by future sessions)."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mode": {"type": "string", "enum": ["list", "search", "read", "write", "write_meta", "write_report"]},
			"type": {"type": "string", "enum": ["research", "finding", "estimate", "reasoning", "source"]},
			"topic": {"type": "string"},
			"summary": {"type": "string"},
			"content": {"type": "string"},
			"sources": {"type": "array", "items": {"type": "string"}},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"question_id": {"type": "integer"},
			"id": {"type": "string"},
			"query": {"type": "string"},
			"title": {"type": "string"}
		},
		"required": ["mode"]
	}`)
}

type toolInput struct {
	Mode       string   `json:"mode"`
	Type       Type     `json:"type,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Content    string   `json:"content,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	QuestionID *int64   `json:"question_id,omitempty"`
	ID         string   `json:"id,omitempty"`
	Query      string   `json:"query,omitempty"`
	Title      string   `json:"title,omitempty"`
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in toolInput
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid notes params: %v", err), IsError: true}, nil
	}

	switch in.Mode {
	case "list":
		summaries, err := t.store.List(ctx, ListFilter{TypeFilter: in.Type, QuestionID: in.QuestionID})
		return encodeResult(summaries, err)

	case "search":
		summaries, err := t.store.Search(ctx, in.Query, in.Type)
		return encodeResult(summaries, err)

	case "read":
		note, err := t.store.Read(ctx, in.ID)
		return encodeResult(note, err)

	case "write":
		note, err := t.store.Write(ctx, WriteInput{
			Type: in.Type, Topic: in.Topic, Summary: in.Summary, Content: in.Content,
			Sources: in.Sources, Confidence: in.Confidence, QuestionID: in.QuestionID,
		})
		return encodeResult(note, err)

	case "write_meta":
		if t.sessionID == "" {
			return &agent.ToolResult{Content: "write_meta is not available in this context", IsError: true}, nil
		}
		path, err := t.store.WriteMeta(ctx, t.sessionID, in.Content)
		return encodeResult(map[string]string{"path": path}, err)

	case "write_report":
		if in.QuestionID == nil {
			return &agent.ToolResult{Content: "write_report requires question_id", IsError: true}, nil
		}
		path, err := t.store.WriteReport(ctx, *in.QuestionID, in.Title, in.Content)
		return encodeResult(map[string]string{"path": path}, err)

	default:
		return &agent.ToolResult{Content: fmt.Sprintf("unknown notes mode: %q", in.Mode), IsError: true}, nil
	}
}

func encodeResult(v any, err error) (*agent.ToolResult, error) {
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, encErr := json.Marshal(v)
	if encErr != nil {
		return &agent.ToolResult{Content: encErr.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(encoded)}, nil
}
