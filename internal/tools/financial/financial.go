// Package financial implements economic-indicator and company-financials
// tools: FRED series lookup/search, and quarterly or annual income
// statements for public companies. In retrodict mode, observation windows
// are capped at the cutoff so a run can never see data published later.
package financial

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
	fredAPI    = "https://api.stlouisfed.org/fred"
	yahooQuote = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"
)

// Observation is a single FRED data point.
type Observation struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// SeriesInfo is metadata describing a FRED series.
type SeriesInfo struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Frequency          string `json:"frequency"`
	Units              string `json:"units"`
	SeasonalAdjustment string `json:"seasonal_adjustment"`
	LastUpdated        string `json:"last_updated"`
}

// SeriesResult bundles a series's metadata with its requested observations.
type SeriesResult struct {
	Series            SeriesInfo    `json:"series"`
	LatestValue       *float64      `json:"latest_value"`
	LatestDate        string        `json:"latest_date"`
	ObservationStart  string        `json:"observation_start"`
	ObservationEnd    string        `json:"observation_end"`
	DataPoints        int           `json:"data_points"`
	Observations      []Observation `json:"observations"`
}

// SearchHit is one result from a FRED series keyword search.
type SearchHit struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Frequency  string `json:"frequency"`
	Units      string `json:"units"`
	Popularity int    `json:"popularity"`
}

// ErrNoAPIKey is returned by FRED tools when no API key is configured.
var ErrNoAPIKey = fmt.Errorf("FRED_API_KEY not configured; get a free key at https://fred.stlouisfed.org/docs/api/api_key.html")

// Client queries the FRED REST API and a public equity-quote endpoint.
type Client struct {
	httpClient *http.Client
	fredAPIKey string
}

// NewClient builds a Client. fredAPIKey may be empty, in which case FRED
// tools return ErrNoAPIKey; company financials don't require a key.
func NewClient(fredAPIKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		fredAPIKey: fredAPIKey,
	}
}

// SeriesOptions controls the observation window for FredSeries.
type SeriesOptions struct {
	ObservationStart string
	ObservationEnd   string
}

// FredSeries fetches recent observations and metadata for a FRED series.
// The observation end date is clamped to the retrodict cutoff, if active.
func (c *Client) FredSeries(ctx context.Context, seriesID string, opts SeriesOptions) (*SeriesResult, error) {
	if c.fredAPIKey == "" {
		return nil, ErrNoAPIKey
	}
	seriesID = strings.ToUpper(strings.TrimSpace(seriesID))

	endDate := opts.ObservationEnd
	if endDate == "" {
		endDate = time.Now().UTC().Format("2006-01-02")
	}
	if cfg, ok := retrodict.FromContext(ctx); ok {
		endDate = cfg.DateStr()
	}
	startDate := opts.ObservationStart
	if startDate == "" {
		startDate = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}

	info, err := c.seriesInfo(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("FRED series info for %s: %w", seriesID, err)
	}

	observations, err := c.seriesObservations(ctx, seriesID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("FRED observations for %s: %w", seriesID, err)
	}

	var latestValue *float64
	var latestDate string
	for i := len(observations) - 1; i >= 0; i-- {
		if observations[i].Value != nil {
			latestValue = observations[i].Value
			latestDate = observations[i].Date
			break
		}
	}

	trimmed := observations
	if len(trimmed) > 30 {
		trimmed = trimmed[len(trimmed)-30:]
	}

	return &SeriesResult{
		Series:           info,
		LatestValue:      latestValue,
		LatestDate:       latestDate,
		ObservationStart: startDate,
		ObservationEnd:   endDate,
		DataPoints:       len(observations),
		Observations:     trimmed,
	}, nil
}

func (c *Client) seriesInfo(ctx context.Context, seriesID string) (SeriesInfo, error) {
	var parsed struct {
		Seriess []struct {
			ID                 string `json:"id"`
			Title              string `json:"title"`
			Frequency          string `json:"frequency"`
			Units              string `json:"units"`
			SeasonalAdjustment string `json:"seasonal_adjustment"`
			LastUpdated        string `json:"last_updated"`
		} `json:"seriess"`
	}
	if err := c.get(ctx, fredAPI+"/series", url.Values{"series_id": {seriesID}}, &parsed); err != nil {
		return SeriesInfo{}, err
	}
	if len(parsed.Seriess) == 0 {
		return SeriesInfo{ID: seriesID, Title: seriesID, Frequency: "Unknown", Units: "Unknown", SeasonalAdjustment: "Unknown"}, nil
	}
	s := parsed.Seriess[0]
	lastUpdated := s.LastUpdated
	if len(lastUpdated) > 10 {
		lastUpdated = lastUpdated[:10]
	}
	return SeriesInfo{
		ID: s.ID, Title: s.Title, Frequency: s.Frequency, Units: s.Units,
		SeasonalAdjustment: s.SeasonalAdjustment, LastUpdated: lastUpdated,
	}, nil
}

func (c *Client) seriesObservations(ctx context.Context, seriesID, start, end string) ([]Observation, error) {
	var parsed struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	params := url.Values{
		"series_id":          {seriesID},
		"observation_start":  {start},
		"observation_end":    {end},
	}
	if err := c.get(ctx, fredAPI+"/series/observations", params, &parsed); err != nil {
		return nil, err
	}

	observations := make([]Observation, 0, len(parsed.Observations))
	for _, obs := range parsed.Observations {
		entry := Observation{Date: obs.Date}
		if obs.Value != "." && obs.Value != "" {
			var v float64
			if _, err := fmt.Sscanf(obs.Value, "%g", &v); err == nil {
				entry.Value = &v
			}
		}
		observations = append(observations, entry)
	}
	return observations, nil
}

// FredSearch finds FRED series by keyword; use this to discover a series_id
// before calling FredSeries.
func (c *Client) FredSearch(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if c.fredAPIKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var parsed struct {
		Seriess []struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Frequency  string `json:"frequency"`
			Units      string `json:"units"`
			Popularity int    `json:"popularity"`
		} `json:"seriess"`
	}
	if err := c.get(ctx, fredAPI+"/series/search", url.Values{"search_text": {query}}, &parsed); err != nil {
		return nil, fmt.Errorf("FRED search: %w", err)
	}

	hits := make([]SearchHit, 0, limit)
	for i, s := range parsed.Seriess {
		if i >= limit {
			break
		}
		hits = append(hits, SearchHit{ID: s.ID, Title: s.Title, Frequency: s.Frequency, Units: s.Units, Popularity: s.Popularity})
	}
	return hits, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("api_key", c.fredAPIKey)
	params.Set("file_type", "json")

	result := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("FRED API returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
	return result.Err
}

// FinancialPeriod is one quarter's or year's income statement line items.
type FinancialPeriod struct {
	PeriodEnd string             `json:"period_end"`
	LineItems map[string]float64 `json:"line_items"`
}

// CompanyFinancials is the response shape for CompanyFinancials.
type CompanyFinancials struct {
	Ticker      string            `json:"ticker"`
	CompanyName string            `json:"company_name"`
	PeriodType  string            `json:"period_type"`
	NumPeriods  int               `json:"num_periods"`
	Financials  []FinancialPeriod `json:"financials"`
}

// CompanyFinancials fetches quarterly or annual income-statement data for a
// public company ticker via Yahoo Finance's public quoteSummary endpoint.
func (c *Client) CompanyFinancials(ctx context.Context, ticker, period string) (*CompanyFinancials, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if period != "annual" {
		period = "quarterly"
	}

	module := "incomeStatementHistoryQuarterly"
	if period == "annual" {
		module = "incomeStatementHistory"
	}

	var parsed struct {
		QuoteSummary struct {
			Result []struct {
				IncomeStatementHistory struct {
					IncomeStatementHistory []map[string]struct {
						Raw float64 `json:"raw"`
						Fmt string  `json:"fmt"`
					} `json:"incomeStatementHistory"`
				} `json:"incomeStatementHistory"`
				IncomeStatementHistoryQuarterly struct {
					IncomeStatementHistory []map[string]struct {
						Raw float64 `json:"raw"`
						Fmt string  `json:"fmt"`
					} `json:"incomeStatementHistory"`
				} `json:"incomeStatementHistoryQuarterly"`
				Price struct {
					ShortName string `json:"shortName"`
				} `json:"price"`
			} `json:"result"`
		} `json:"quoteSummary"`
	}

	params := url.Values{"modules": {module + ",price"}}
	if err := c.get(ctx, fmt.Sprintf("%s/%s", yahooQuote, ticker), params, &parsed); err != nil {
		return nil, fmt.Errorf("company financials for %s: %w", ticker, err)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no financial data found for %s", ticker)
	}

	result := parsed.QuoteSummary.Result[0]
	rows := result.IncomeStatementHistoryQuarterly.IncomeStatementHistory
	if period == "annual" {
		rows = result.IncomeStatementHistory.IncomeStatementHistory
	}

	periods := make([]FinancialPeriod, 0, len(rows))
	for _, row := range rows {
		p := FinancialPeriod{LineItems: map[string]float64{}}
		for key, val := range row {
			if key == "endDate" {
				p.PeriodEnd = val.Fmt
				continue
			}
			p.LineItems[key] = val.Raw
		}
		periods = append(periods, p)
	}
	if len(periods) > 8 {
		periods = periods[:8]
	}

	companyName := result.Price.ShortName
	if companyName == "" {
		companyName = ticker
	}

	return &CompanyFinancials{
		Ticker:      ticker,
		CompanyName: companyName,
		PeriodType:  period,
		NumPeriods:  len(periods),
		Financials:  periods,
	}, nil
}
