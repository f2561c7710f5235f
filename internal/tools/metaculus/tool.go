package metaculus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

// GetQuestionsTool adapts Client.GetQuestion into a batch question-detail
// lookup by post ID, hiding the community prediction when a retrodict
// cutoff is active (community predictions are unavailable in tournaments
// this agent competes in, and would leak future consensus otherwise).
type GetQuestionsTool struct{ client *Client }

// NewGetQuestionsTool builds the get_metaculus_questions tool bound to client.
func NewGetQuestionsTool(client *Client) *GetQuestionsTool { return &GetQuestionsTool{client: client} }

func (t *GetQuestionsTool) Name() string { return "get_metaculus_questions" }

func (t *GetQuestionsTool) Description() string {
	return "Fetch details for one or more Metaculus questions by their post ID. Pass " +
		"post_id_list as a list of integer post IDs. Returns title, description, resolution " +
		"criteria, fine print, and numeric bounds where applicable. Maximum 20 per request."
}

func (t *GetQuestionsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"post_id_list": {"type": "array", "items": {"type": "integer"}, "minItems": 1, "maxItems": 20}
		},
		"required": ["post_id_list"]
	}`)
}

func (t *GetQuestionsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		PostIDList []int64 `json:"post_id_list"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid get_metaculus_questions params: %v", err), IsError: true}, nil
	}
	if len(in.PostIDList) > 20 {
		in.PostIDList = in.PostIDList[:20]
	}

	hideCP := retrodict.IsActive(ctx)
	type outcome struct {
		PostID int64  `json:"post_id"`
		Error  string `json:"error,omitempty"`
		*QuestionView
	}
	results := make([]outcome, 0, len(in.PostIDList))
	for _, postID := range in.PostIDList {
		q, err := t.client.GetQuestion(ctx, postID)
		if err != nil {
			results = append(results, outcome{PostID: postID, Error: err.Error()})
			continue
		}
		view := toQuestionView(q, hideCP)
		results = append(results, outcome{PostID: postID, QuestionView: view})
	}

	if len(results) == 1 {
		encoded, _ := json.Marshal(results[0])
		return &agent.ToolResult{Content: string(encoded)}, nil
	}
	encoded, _ := json.Marshal(map[string]any{"questions": results})
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// QuestionView is the tool-facing projection of models.Question.
type QuestionView struct {
	PostID             int64    `json:"post_id"`
	QuestionID         int64    `json:"question_id"`
	Type               string   `json:"type"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	ResolutionCriteria string   `json:"resolution_criteria,omitempty"`
	FinePrint          string   `json:"fine_print,omitempty"`
	RangeMin           *float64 `json:"range_min,omitempty"`
	RangeMax           *float64 `json:"range_max,omitempty"`
	Options            []string `json:"options,omitempty"`
	URL                string   `json:"url"`
}

func toQuestionView(q *models.Question, hideCP bool) *QuestionView {
	_ = hideCP // community predictions are not surfaced on the question detail endpoint at all
	return &QuestionView{
		PostID:             q.PostID,
		QuestionID:         q.QuestionID,
		Type:               string(q.QuestionType),
		Title:              q.Title,
		Description:        q.Description,
		ResolutionCriteria: q.ResolutionCriteria,
		FinePrint:          q.FinePrint,
		RangeMin:           q.RangeMin,
		RangeMax:           q.RangeMax,
		Options:            q.Options,
		URL:                fmt.Sprintf("https://www.metaculus.com/questions/%d/", q.PostID),
	}
}

// ListTournamentQuestionsTool adapts Client.ListQuestions, filtered to a
// single tournament, into list_tournament_questions.
type ListTournamentQuestionsTool struct{ client *Client }

// NewListTournamentQuestionsTool builds the list_tournament_questions tool bound to client.
func NewListTournamentQuestionsTool(client *Client) *ListTournamentQuestionsTool {
	return &ListTournamentQuestionsTool{client: client}
}

func (t *ListTournamentQuestionsTool) Name() string { return "list_tournament_questions" }

func (t *ListTournamentQuestionsTool) Description() string {
	return "List open questions from a specific Metaculus tournament (by tournament slug or ID). " +
		"Returns post IDs usable with get_metaculus_questions. Optional num_questions (default 20)."
}

func (t *ListTournamentQuestionsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"tournament_id": {"type": "string"},
			"num_questions": {"type": "integer"}
		},
		"required": ["tournament_id"]
	}`)
}

func (t *ListTournamentQuestionsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		TournamentID json.RawMessage `json:"tournament_id"`
		NumQuestions int             `json:"num_questions"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid list_tournament_questions params: %v", err), IsError: true}, nil
	}
	limit := in.NumQuestions
	if limit <= 0 {
		limit = 20
	}

	tournament := rawToString(in.TournamentID)
	questions, err := t.client.ListQuestions(ctx, ListQuestionsOptions{
		Status:      "open",
		Tournaments: []string{tournament},
		Limit:       limit,
	})
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	type hit struct {
		PostID     int64  `json:"post_id"`
		QuestionID int64  `json:"question_id"`
		Title      string `json:"title"`
		Type       string `json:"type"`
		URL        string `json:"url"`
	}
	results := make([]hit, 0, len(questions))
	for _, q := range questions {
		if len(results) >= limit {
			break
		}
		results = append(results, hit{
			PostID: q.PostID, QuestionID: q.QuestionID, Title: q.Title,
			Type: string(q.QuestionType), URL: fmt.Sprintf("https://www.metaculus.com/questions/%d/", q.PostID),
		})
	}
	encoded, _ := json.Marshal(results)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// rawToString unwraps a JSON value that may be a bare string or a number,
// since tournament IDs are sometimes numeric (32916) and sometimes a slug
// ("minibench").
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// SearchTool adapts Client.ListQuestions (text search filter) into search_metaculus.
type SearchTool struct{ client *Client }

// NewSearchTool builds the search_metaculus tool bound to client.
func NewSearchTool(client *Client) *SearchTool { return &SearchTool{client: client} }

func (t *SearchTool) Name() string { return "search_metaculus" }

func (t *SearchTool) Description() string {
	return "Search Metaculus questions by text query. Returns matching questions with post IDs, " +
		"titles, and types. Optional num_results (default 20)."
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"num_results": {"type": "integer"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Query      string `json:"query"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid search_metaculus params: %v", err), IsError: true}, nil
	}
	limit := in.NumResults
	if limit <= 0 {
		limit = 20
	}

	questions, err := t.client.ListQuestions(ctx, ListQuestionsOptions{Search: in.Query, Limit: limit})
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	type hit struct {
		PostID     int64  `json:"post_id"`
		QuestionID int64  `json:"question_id"`
		Title      string `json:"title"`
		Type       string `json:"type"`
		URL        string `json:"url"`
	}
	results := make([]hit, 0, len(questions))
	for _, q := range questions {
		results = append(results, hit{
			PostID: q.PostID, QuestionID: q.QuestionID, Title: q.Title,
			Type: string(q.QuestionType), URL: fmt.Sprintf("https://www.metaculus.com/questions/%d/", q.PostID),
		})
	}
	encoded, _ := json.Marshal(results)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// CoherenceLinksTool adapts Client.GetCoherenceLinks into get_coherence_links.
type CoherenceLinksTool struct{ client *Client }

// NewCoherenceLinksTool builds the get_coherence_links tool bound to client.
func NewCoherenceLinksTool(client *Client) *CoherenceLinksTool {
	return &CoherenceLinksTool{client: client}
}

func (t *CoherenceLinksTool) Name() string { return "get_coherence_links" }

func (t *CoherenceLinksTool) Description() string {
	return "Get Metaculus questions logically related to this one. Use this to check your " +
		"forecast is consistent with related questions — e.g. if you forecast 80% on " +
		"'by 2027?', your forecast on the 'by 2026?' variant should be no higher. Requires " +
		"question_id, not post_id."
}

func (t *CoherenceLinksTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"question_id": {"type": "integer"}},
		"required": ["question_id"]
	}`)
}

func (t *CoherenceLinksTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		QuestionID int64 `json:"question_id"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid get_coherence_links params: %v", err), IsError: true}, nil
	}
	links, err := t.client.GetCoherenceLinks(ctx, in.QuestionID)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(links)
	return &agent.ToolResult{Content: string(encoded)}, nil
}

// CPHistoryTool adapts Client.GetAggregateHistory into get_cp_history.
type CPHistoryTool struct{ client *Client }

// NewCPHistoryTool builds the get_cp_history tool bound to client.
func NewCPHistoryTool(client *Client) *CPHistoryTool { return &CPHistoryTool{client: client} }

func (t *CPHistoryTool) Name() string { return "get_cp_history" }

func (t *CPHistoryTool) Description() string {
	return "Fetch historical community prediction (CP) data for a question — essential for " +
		"meta-prediction questions ('Will CP be above X%?'). Capped at the retrodict cutoff " +
		"when active."
}

func (t *CPHistoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"question_id": {"type": "integer"},
			"days": {"type": "integer"}
		},
		"required": ["question_id"]
	}`)
}

func (t *CPHistoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		QuestionID int64 `json:"question_id"`
		Days       int   `json:"days"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid get_cp_history params: %v", err), IsError: true}, nil
	}
	days := in.Days
	if days <= 0 || days > 365 {
		days = 365
	}

	var cutoffUnix int64
	if cfg, ok := retrodict.FromContext(ctx); ok {
		cutoffUnix = cfg.UnixSeconds()
	}

	history, err := t.client.GetAggregateHistory(ctx, in.QuestionID, days, cutoffUnix)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(map[string]any{
		"question_id": in.QuestionID,
		"days":        days,
		"history":     history,
	})
	return &agent.ToolResult{Content: string(encoded)}, nil
}
