package metaculus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/haasonsaas/oracleforge/pkg/models"
)

// postEnvelope mirrors the platform's post JSON shape: the type-specific
// question detail lives under one of question/conditional/group_of_questions
// depending on the post kind.
type postEnvelope struct {
	ID                int64 `json:"id"`
	Question          *questionDetail `json:"question"`
	Conditional       *questionDetail `json:"conditional"`
	GroupOfQuestions  *struct {
		Questions []questionDetail `json:"questions"`
	} `json:"group_of_questions"`
}

type questionDetail struct {
	ID                   int64    `json:"id"`
	Type                 string   `json:"type"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	ResolutionCriteria   string   `json:"resolution_criteria"`
	FinePrint            string   `json:"fine_print"`
	RangeMin             *float64 `json:"range_min"`
	RangeMax             *float64 `json:"range_max"`
	OpenLowerBound       bool     `json:"open_lower_bound"`
	OpenUpperBound       bool     `json:"open_upper_bound"`
	ZeroPoint            *float64 `json:"zero_point"`
	InboundOutcomeCount  int      `json:"inbound_outcome_count"`
	Options              []string `json:"options"`
	PublishedAt          string   `json:"published_at"`
	ScheduledCloseTime   string   `json:"scheduled_close_time"`
	ScheduledResolveTime string   `json:"scheduled_resolve_time"`
	ActualResolutionTime *string  `json:"actual_resolution_time"`
	ResolutionString     string   `json:"resolution_string"`
}

// GetQuestion fetches a post by its post_id and returns its question detail.
// If the caller only has a question_id, it is tried as a post_id first and,
// on a 404, recovered via ListQuestions filtering (the platform does not
// expose a direct question_id lookup endpoint).
func (c *Client) GetQuestion(ctx context.Context, postID int64) (*models.Question, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/", postID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch post %d: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var env postEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode post %d: %w", postID, err)
	}

	detail := env.Question
	if detail == nil {
		detail = env.Conditional
	}
	if detail == nil && env.GroupOfQuestions != nil && len(env.GroupOfQuestions.Questions) > 0 {
		detail = &env.GroupOfQuestions.Questions[0]
	}
	if detail == nil {
		return nil, fmt.Errorf("post %d has no question, conditional, or group detail", postID)
	}

	return detailToQuestion(env.ID, detail), nil
}

// ListGroupQuestions unpacks every sub-question of a group post, sharing the
// envelope's post_id.
func (c *Client) ListGroupQuestions(ctx context.Context, postID int64) ([]*models.Question, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/", postID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch post %d: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var env postEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode post %d: %w", postID, err)
	}
	if env.GroupOfQuestions == nil {
		return nil, fmt.Errorf("post %d is not a group-of-questions post", postID)
	}

	out := make([]*models.Question, 0, len(env.GroupOfQuestions.Questions))
	for i := range env.GroupOfQuestions.Questions {
		out = append(out, detailToQuestion(env.ID, &env.GroupOfQuestions.Questions[i]))
	}
	return out, nil
}

// ListQuestionsOptions controls the filtered post listing endpoint.
type ListQuestionsOptions struct {
	Status                   string
	Tournaments              []string
	ForecastType             string
	ForecasterCountGTE       int
	ScheduledResolveTimeGT   string
	ScheduledResolveTimeLT   string
	Search                   string
	HasCommunityPrediction   *bool
	OrderBy                  string
	Offset                   int
	Limit                    int
}

type listResponse struct {
	Results []postEnvelope `json:"results"`
}

// ListQuestions fetches open tournament questions matching opts. The
// server's status filter is not reliably consistent, so the result is
// filtered client-side against opts.Status as well.
func (c *Client) ListQuestions(ctx context.Context, opts ListQuestionsOptions) ([]*models.Question, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if len(opts.Tournaments) > 0 {
		q.Set("tournaments", strings.Join(opts.Tournaments, ","))
	}
	if opts.ForecastType != "" {
		q.Set("forecast_type", opts.ForecastType)
	}
	if opts.ForecasterCountGTE > 0 {
		q.Set("forecaster_count__gte", strconv.Itoa(opts.ForecasterCountGTE))
	}
	if opts.ScheduledResolveTimeGT != "" {
		q.Set("scheduled_resolve_time__gt", opts.ScheduledResolveTimeGT)
	}
	if opts.ScheduledResolveTimeLT != "" {
		q.Set("scheduled_resolve_time__lt", opts.ScheduledResolveTimeLT)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.HasCommunityPrediction != nil {
		q.Set("has_community_prediction", strconv.FormatBool(*opts.HasCommunityPrediction))
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/posts/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode post list: %w", err)
	}

	out := make([]*models.Question, 0, len(list.Results))
	for _, env := range list.Results {
		detail := env.Question
		if detail == nil {
			detail = env.Conditional
		}
		if detail == nil {
			continue
		}
		question := detailToQuestion(env.ID, detail)
		if opts.Status != "" && !questionMatchesStatus(question, opts.Status) {
			continue
		}
		out = append(out, question)
	}
	return out, nil
}

func questionMatchesStatus(q *models.Question, status string) bool {
	switch status {
	case "open":
		return q.ActualResolutionTime == nil
	case "resolved":
		return q.ActualResolutionTime != nil
	default:
		return true
	}
}

// CoherenceLink is one edge in a question's coherence graph.
type CoherenceLink struct {
	QuestionID   int64   `json:"question_id"`
	LinkedID     int64   `json:"linked_question_id"`
	Direction    string  `json:"direction"`
	Strength     float64 `json:"strength"`
}

// GetCoherenceLinks fetches the coherence graph edges for a question.
func (c *Client) GetCoherenceLinks(ctx context.Context, questionID int64) ([]CoherenceLink, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/coherence/question/%d/links/", questionID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch coherence links for %d: %w", questionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var links []CoherenceLink
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return nil, fmt.Errorf("decode coherence links for %d: %w", questionID, err)
	}
	return links, nil
}

// AggregateHistoryPoint is one entry in a question's community-prediction
// time series.
type AggregateHistoryPoint struct {
	StartTime int64     `json:"start_time"`
	Centers   []float64 `json:"centers"`
}

type aggregateHistoryResponse struct {
	History []AggregateHistoryPoint `json:"history"`
}

// GetAggregateHistory fetches the community-prediction time series for a
// question over the trailing days window. When cutoffUnix is non-zero,
// entries with StartTime after cutoffUnix are dropped (retrodict mode).
func (c *Client) GetAggregateHistory(ctx context.Context, questionID int64, days int, cutoffUnix int64) ([]AggregateHistoryPoint, error) {
	path := fmt.Sprintf("/api/questions/%d/aggregate-history/?days=%d", questionID, days)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch aggregate history for %d: %w", questionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var parsed aggregateHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode aggregate history for %d: %w", questionID, err)
	}

	if cutoffUnix == 0 {
		return parsed.History, nil
	}
	filtered := make([]AggregateHistoryPoint, 0, len(parsed.History))
	for _, point := range parsed.History {
		if point.StartTime <= cutoffUnix {
			filtered = append(filtered, point)
		}
	}
	return filtered, nil
}

func detailToQuestion(postID int64, d *questionDetail) *models.Question {
	q := &models.Question{
		PostID:              postID,
		QuestionID:          d.ID,
		QuestionType:        models.QuestionType(d.Type),
		Title:               d.Title,
		Description:         d.Description,
		ResolutionCriteria:  d.ResolutionCriteria,
		FinePrint:           d.FinePrint,
		RangeMin:            d.RangeMin,
		RangeMax:            d.RangeMax,
		OpenLowerBound:      d.OpenLowerBound,
		OpenUpperBound:      d.OpenUpperBound,
		ZeroPoint:           d.ZeroPoint,
		InboundOutcomeCount: d.InboundOutcomeCount,
		Options:             d.Options,
		ResolutionString:    d.ResolutionString,
	}
	q.PublishedAt = parseTimeOrZero(d.PublishedAt)
	q.ScheduledCloseTime = parseTimeOrZero(d.ScheduledCloseTime)
	q.ScheduledResolveTime = parseTimeOrZero(d.ScheduledResolveTime)
	if d.ActualResolutionTime != nil {
		t := parseTimeOrZero(*d.ActualResolutionTime)
		q.ActualResolutionTime = &t
	}
	return q
}
