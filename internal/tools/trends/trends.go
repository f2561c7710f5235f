// Package trends implements Google Trends interest-over-time, multi-term
// comparison, and related-queries tools against Trends' unofficial widget
// API (the same endpoints pytrends drives): an /explore call returns
// per-widget request tokens, which are then used to fetch the actual
// timeseries/related-query payloads. In retrodict mode the relative
// timeframe is rewritten to an absolute date range ending at the cutoff.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
	"github.com/haasonsaas/oracleforge/internal/retry"
)

const (
	exploreEndpoint    = "https://trends.google.com/trends/api/explore"
	multilineEndpoint  = "https://trends.google.com/trends/api/widgetdata/multiline"
	relatedEndpoint    = "https://trends.google.com/trends/api/widgetdata/relatedsearches"
	// jsonPrefix is Trends' anti-JSON-hijacking prefix stripped from every
	// widget response before decoding.
	jsonPrefix = ")]}',"
)

// DataPoint is a single interest-over-time observation (0-100 scale).
type DataPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// Result is the response shape for a single-keyword interest-over-time query.
type Result struct {
	Keyword        string      `json:"keyword"`
	Timeframe      string      `json:"timeframe"`
	Geo            string      `json:"geo"`
	DataPoints     int         `json:"data_points"`
	LatestValue    *int        `json:"latest_value"`
	MaxValue       int         `json:"max_value"`
	MinValue       int         `json:"min_value"`
	AverageValue   float64     `json:"average_value"`
	TrendDirection string      `json:"trend_direction"`
	History        []DataPoint `json:"history"`
}

// ComparisonEntry summarizes one keyword within a multi-term comparison.
type ComparisonEntry struct {
	LatestValue    *int    `json:"latest_value"`
	MaxValue       int     `json:"max_value"`
	AverageValue   float64 `json:"average_value"`
	TrendDirection string  `json:"trend_direction"`
}

// Comparison is the response shape for google_trends_compare.
type Comparison struct {
	Keywords       []string                   `json:"keywords"`
	Timeframe      string                     `json:"timeframe"`
	Geo            string                     `json:"geo"`
	DataPoints     int                        `json:"data_points"`
	Comparison     map[string]ComparisonEntry `json:"comparison"`
	HighestAverage string                     `json:"highest_average,omitempty"`
}

// RelatedQuery is one related search term and its relative score.
type RelatedQuery struct {
	Query string `json:"query"`
	Value string `json:"value"` // numeric score, or "Breakout" for rising
}

// Related is the response shape for google_trends_related.
type Related struct {
	Keyword       string         `json:"keyword"`
	Timeframe     string         `json:"timeframe"`
	Geo           string         `json:"geo"`
	TopQueries    []RelatedQuery `json:"top_queries"`
	RisingQueries []RelatedQuery `json:"rising_queries"`
}

// Client queries Google Trends' unofficial widget API.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a Client with a 20s request timeout.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// resolveTimeframe rewrites a relative timeframe ("today 3-m") to an
// absolute range ending at the retrodict cutoff, when one is active.
// Trends accepts "YYYY-MM-DD YYYY-MM-DD" absolute ranges directly.
func resolveTimeframe(ctx context.Context, timeframe string) string {
	cfg, ok := retrodict.FromContext(ctx)
	if !ok {
		return timeframe
	}

	end := cfg.ForecastDate
	start := end.AddDate(0, -3, 0) // default lookback window mirrors "today 3-m"
	switch {
	case strings.Contains(timeframe, "1-m"):
		start = end.AddDate(0, -1, 0)
	case strings.Contains(timeframe, "12-m"):
		start = end.AddDate(-1, 0, 0)
	case strings.Contains(timeframe, "5-y"):
		start = end.AddDate(-5, 0, 0)
	case timeframe == "all":
		start = time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return fmt.Sprintf("%s %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}

type exploreRequest struct {
	ComparisonItems []exploreComparisonItem `json:"comparisonItem"`
	Category        int                     `json:"category"`
	Property        string                  `json:"property"`
}

type exploreComparisonItem struct {
	Keyword   string `json:"keyword"`
	Geo       string `json:"geo"`
	Time      string `json:"time"`
}

type widgetToken struct {
	Token   string          `json:"token"`
	ID      string          `json:"id"`
	Request json.RawMessage `json:"request"`
}

func (c *Client) explore(ctx context.Context, keywords []string, timeframe, geo string) ([]widgetToken, error) {
	items := make([]exploreComparisonItem, 0, len(keywords))
	for _, kw := range keywords {
		items = append(items, exploreComparisonItem{Keyword: kw, Geo: geo, Time: timeframe})
	}
	reqPayload, err := json.Marshal(exploreRequest{ComparisonItems: items, Category: 0, Property: ""})
	if err != nil {
		return nil, fmt.Errorf("encode explore request: %w", err)
	}

	params := url.Values{
		"hl":  {"en-US"},
		"tz":  {"360"},
		"req": {string(reqPayload)},
	}

	body, err := c.doWidgetRequest(ctx, exploreEndpoint, params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Widgets []widgetToken `json:"widgets"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode explore response: %w", err)
	}
	return parsed.Widgets, nil
}

func (c *Client) doWidgetRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	var body []byte
	result := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; oracleforge-research/1.0)")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("trends API returned %d", resp.StatusCode)
		}

		buf := make([]byte, 0, 8192)
		chunk := make([]byte, 8192)
		for {
			n, readErr := resp.Body.Read(chunk)
			if n > 0 {
				buf = append(buf, chunk[:n]...)
			}
			if readErr != nil {
				break
			}
		}
		body = buf
		return nil
	})
	if result.Err != nil {
		return nil, result.Err
	}
	return []byte(strings.TrimPrefix(string(body), jsonPrefix)), nil
}

func findWidget(widgets []widgetToken, id string) *widgetToken {
	for i := range widgets {
		if widgets[i].ID == id {
			return &widgets[i]
		}
	}
	return nil
}

// InterestOverTime fetches relative search interest (0-100) for keyword
// across timeframe, optionally scoped to an ISO 3166-1 alpha-2 geo code.
func (c *Client) InterestOverTime(ctx context.Context, keyword, timeframe, geo string) (*Result, error) {
	timeframe = resolveTimeframe(ctx, timeframe)

	widgets, err := c.explore(ctx, []string{keyword}, timeframe, geo)
	if err != nil {
		return nil, fmt.Errorf("google trends explore for %q: %w", keyword, err)
	}
	widget := findWidget(widgets, "TIMESERIES")
	if widget == nil {
		return &Result{Keyword: keyword, Timeframe: timeframe, Geo: displayGeo(geo), History: []DataPoint{}}, nil
	}

	values, dates, err := c.fetchTimeseries(ctx, *widget)
	if err != nil {
		return nil, fmt.Errorf("google trends timeseries for %q: %w", keyword, err)
	}
	if len(values) == 0 {
		return &Result{Keyword: keyword, Timeframe: timeframe, Geo: displayGeo(geo), History: []DataPoint{}}, nil
	}

	history := make([]DataPoint, len(values))
	for i := range values {
		history[i] = DataPoint{Date: dates[i], Value: values[i]}
	}
	if len(history) > 50 {
		history = history[len(history)-50:]
	}

	latest := values[len(values)-1]
	return &Result{
		Keyword:        keyword,
		Timeframe:      timeframe,
		Geo:            displayGeo(geo),
		DataPoints:     len(values),
		LatestValue:    &latest,
		MaxValue:       maxInt(values),
		MinValue:       minInt(values),
		AverageValue:   round1(average(values)),
		TrendDirection: trendDirection(values),
		History:        history,
	}, nil
}

// Compare fetches interest-over-time for up to 5 keywords, relative to each
// other within a single comparison.
func (c *Client) Compare(ctx context.Context, keywords []string, timeframe, geo string) (*Comparison, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("compare requires at least one keyword")
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	timeframe = resolveTimeframe(ctx, timeframe)

	widgets, err := c.explore(ctx, keywords, timeframe, geo)
	if err != nil {
		return nil, fmt.Errorf("google trends explore: %w", err)
	}
	widget := findWidget(widgets, "TIMESERIES")
	if widget == nil {
		return &Comparison{Keywords: keywords, Timeframe: timeframe, Geo: displayGeo(geo), Comparison: map[string]ComparisonEntry{}}, nil
	}

	perKeyword, dataPoints, err := c.fetchMultiTimeseries(ctx, *widget, keywords)
	if err != nil {
		return nil, fmt.Errorf("google trends multi-timeseries: %w", err)
	}

	comparison := map[string]ComparisonEntry{}
	var winner string
	var winnerAvg float64
	for _, kw := range keywords {
		values, ok := perKeyword[kw]
		if !ok || len(values) == 0 {
			continue
		}
		latest := values[len(values)-1]
		avg := round1(average(values))
		comparison[kw] = ComparisonEntry{
			LatestValue:    &latest,
			MaxValue:       maxInt(values),
			AverageValue:   avg,
			TrendDirection: trendDirection(values),
		}
		if winner == "" || avg > winnerAvg {
			winner, winnerAvg = kw, avg
		}
	}

	return &Comparison{
		Keywords:       keywords,
		Timeframe:      timeframe,
		Geo:            displayGeo(geo),
		DataPoints:     dataPoints,
		Comparison:     comparison,
		HighestAverage: winner,
	}, nil
}

// RelatedQueries fetches top and rising search queries related to keyword.
func (c *Client) RelatedQueries(ctx context.Context, keyword, timeframe, geo string) (*Related, error) {
	timeframe = resolveTimeframe(ctx, timeframe)

	widgets, err := c.explore(ctx, []string{keyword}, timeframe, geo)
	if err != nil {
		return nil, fmt.Errorf("google trends explore for %q: %w", keyword, err)
	}
	widget := findWidget(widgets, "RELATED_QUERIES")
	if widget == nil {
		return &Related{Keyword: keyword, Timeframe: timeframe, Geo: displayGeo(geo)}, nil
	}

	params, err := widgetParams(*widget)
	if err != nil {
		return nil, err
	}
	body, err := c.doWidgetRequest(ctx, relatedEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("google trends related queries for %q: %w", keyword, err)
	}

	var parsed struct {
		Default struct {
			RankedList []struct {
				RankedKeyword []struct {
					Query string `json:"query"`
					Value int    `json:"value"`
					Link  string `json:"link"`
				} `json:"rankedKeyword"`
			} `json:"rankedList"`
		} `json:"default"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode related queries: %w", err)
	}

	related := &Related{Keyword: keyword, Timeframe: timeframe, Geo: displayGeo(geo)}
	if len(parsed.Default.RankedList) > 0 {
		related.TopQueries = topQueries(parsed.Default.RankedList[0].RankedKeyword, 10)
	}
	if len(parsed.Default.RankedList) > 1 {
		related.RisingQueries = topQueries(parsed.Default.RankedList[1].RankedKeyword, 10)
	}
	return related, nil
}

func topQueries(ranked []struct {
	Query string `json:"query"`
	Value int    `json:"value"`
	Link  string `json:"link"`
}, limit int) []RelatedQuery {
	out := make([]RelatedQuery, 0, limit)
	for i, r := range ranked {
		if i >= limit {
			break
		}
		out = append(out, RelatedQuery{Query: r.Query, Value: fmt.Sprintf("%d", r.Value)})
	}
	return out
}

func widgetParams(widget widgetToken) (url.Values, error) {
	return url.Values{
		"req":   {string(widget.Request)},
		"token": {widget.Token},
		"tz":    {"360"},
	}, nil
}

func (c *Client) fetchTimeseries(ctx context.Context, widget widgetToken) (values []int, dates []string, err error) {
	params, err := widgetParams(widget)
	if err != nil {
		return nil, nil, err
	}
	body, err := c.doWidgetRequest(ctx, multilineEndpoint, params)
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Default struct {
			TimelineData []struct {
				FormattedTime string `json:"formattedTime"`
				Value         []int  `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode timeseries: %w", err)
	}

	values = make([]int, 0, len(parsed.Default.TimelineData))
	dates = make([]string, 0, len(parsed.Default.TimelineData))
	for _, point := range parsed.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}
		values = append(values, point.Value[0])
		dates = append(dates, point.FormattedTime)
	}
	return values, dates, nil
}

func (c *Client) fetchMultiTimeseries(ctx context.Context, widget widgetToken, keywords []string) (map[string][]int, int, error) {
	params, err := widgetParams(widget)
	if err != nil {
		return nil, 0, err
	}
	body, err := c.doWidgetRequest(ctx, multilineEndpoint, params)
	if err != nil {
		return nil, 0, err
	}

	var parsed struct {
		Default struct {
			TimelineData []struct {
				Value []int `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode multi-timeseries: %w", err)
	}

	perKeyword := make(map[string][]int, len(keywords))
	for _, point := range parsed.Default.TimelineData {
		for i, kw := range keywords {
			if i < len(point.Value) {
				perKeyword[kw] = append(perKeyword[kw], point.Value[i])
			}
		}
	}
	return perKeyword, len(parsed.Default.TimelineData), nil
}

func displayGeo(geo string) string {
	if geo == "" {
		return "worldwide"
	}
	return geo
}

func average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func maxInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// trendDirection compares the first and last quarter of the series,
// mirroring the heuristic used across the research tools.
func trendDirection(values []int) string {
	if len(values) < 3 {
		return "insufficient_data"
	}
	quarterSize := len(values) / 4
	if quarterSize < 1 {
		quarterSize = 1
	}
	firstAvg := average(values[:quarterSize])
	lastAvg := average(values[len(values)-quarterSize:])

	if firstAvg == 0 {
		if lastAvg > 0 {
			return "up"
		}
		return "stable"
	}
	changePct := (lastAvg - firstAvg) / firstAvg
	switch {
	case changePct > 0.15:
		return "up"
	case changePct < -0.15:
		return "down"
	default:
		return "stable"
	}
}
