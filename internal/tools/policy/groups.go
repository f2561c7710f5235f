package policy

// ToolGroups defines named groups of tools for easier policy configuration.
// Group names use the "group:" prefix to distinguish them from tool names.
// Groups mirror the forecasting agent's tool surface: each MCP server/tool
// family gets its own group so availability.go can gate entire groups on a
// single credential or on retrodict mode.
var ToolGroups = map[string][]string{
	// Built-in SDK-provided tools, always available.
	"group:builtin": {"websearch", "webfetch", "read", "write", "glob", "grep", "bash", "task"},

	// Tournament platform tools — require a Metaculus API token.
	"group:metaculus": {
		"get_metaculus_questions",
		"list_tournament_questions",
		"search_metaculus",
		"get_coherence_links",
		"get_prediction_history",
		"get_cp_history",
	},

	// Wikipedia lookup — no credential required.
	"group:wikipedia": {"wikipedia"},

	// Exa-backed web research — requires EXA_API_KEY.
	"group:exa": {"search_exa"},

	// AskNews-backed news search — requires ASKNEWS_CLIENT_ID/SECRET.
	// Never available in retrodict mode regardless of credentials.
	"group:asknews": {"search_news"},

	// FRED economic-data tools — require FRED_API_KEY.
	"group:fred": {"fred_series", "fred_search"},

	// Company income-statement lookup — no credential required.
	"group:company_financials": {"company_financials"},

	// Sandboxed code execution tools.
	"group:sandbox": {"execute_code", "install_package"},

	// Sub-question composition; excluded for sub-forecasts to prevent
	// unbounded recursive spawning. dispatch_subagent hands a narrow
	// research task to one of the fixed subagents.All templates rather than
	// spawning a full recursive forecast.
	"group:composition": {"spawn_subquestions", "dispatch_subagent"},

	// Live prediction-market and equity prices — unavailable in retrodict
	// mode (see markets.ErrRetrodictBlocked).
	"group:live_markets": {"polymarket_price", "manifold_price", "stock_price"},

	// Historical market/equity price series — cutoff-clamped, available in
	// both modes.
	"group:historical_markets": {"polymarket_history", "manifold_history", "stock_history"},

	// Google Trends tools — no credential required.
	"group:trends": {"google_trends", "google_trends_compare", "google_trends_related"},

	// Structured note-taking tools.
	"group:notes": {"notes"},

	// arXiv preprint search — supports publication-date filtering.
	"group:arxiv": {"search_arxiv"},

	// Browser automation — only available outside retrodict mode (a live
	// browser session cannot be meaningfully restricted to a past cutoff).
	"group:browser": {"browser_navigate", "browser_snapshot", "browser_click", "browser_type"},

	// Retrodict-only, archive-validated web search; the sole search path
	// once a cutoff makes current search results untrustworthy.
	"group:retrodict_search": {"retrodict_search"},

	// Every tool group above, for the "full" profile.
	"group:all_forecasting": {
		"get_metaculus_questions", "list_tournament_questions", "search_metaculus",
		"get_coherence_links", "get_prediction_history", "get_cp_history",
		"wikipedia", "search_exa", "search_news",
		"fred_series", "fred_search", "company_financials",
		"execute_code", "install_package", "spawn_subquestions", "dispatch_subagent",
		"polymarket_price", "manifold_price", "stock_price",
		"polymarket_history", "manifold_history", "stock_history",
		"google_trends", "google_trends_compare", "google_trends_related",
		"notes", "search_arxiv",
		"browser_navigate", "browser_snapshot", "browser_click", "browser_type",
		"retrodict_search",
	},
}

// ToolProfiles defines pre-configured tool sets for common forecasting
// agent roles.
var ToolProfiles = map[string]*Policy{
	// Primary forecaster — the full research toolkit, including the
	// ability to spawn sub-question forecasts.
	"forecaster": {
		Profile: ProfileFull,
		Allow: []string{
			"group:builtin", "group:metaculus", "group:wikipedia", "group:exa",
			"group:asknews", "group:fred", "group:company_financials",
			"group:sandbox", "group:composition", "group:live_markets",
			"group:historical_markets", "group:trends", "group:notes",
			"group:arxiv", "group:browser",
		},
	},

	// Sub-forecast — a forecaster spawned by spawn_subquestions, identical
	// to "forecaster" but cannot itself spawn further sub-questions.
	"sub_forecaster": {
		Allow: []string{
			"group:builtin", "group:metaculus", "group:wikipedia", "group:exa",
			"group:asknews", "group:fred", "group:company_financials",
			"group:sandbox", "group:live_markets", "group:historical_markets",
			"group:trends", "group:notes", "group:arxiv", "group:browser",
		},
		Deny: []string{"group:composition"},
	},

	// Retrodict forecaster — live-data and live-search tools excluded,
	// retrodict_search added as the sole web-search substitute.
	"retrodict_forecaster": {
		Allow: []string{
			"group:builtin", "group:metaculus", "group:wikipedia", "group:exa",
			"group:fred", "group:company_financials", "group:sandbox",
			"group:composition", "group:historical_markets", "group:trends",
			"group:notes", "group:arxiv", "group:retrodict_search",
		},
		Deny: []string{"group:asknews", "group:live_markets", "group:browser"},
	},

	// Research-only — the sub-question composer's research/estimator/
	// precedent_finder/resolution_analyst/market_researcher teammates,
	// none of which can spawn further sub-questions or submit forecasts.
	"research": {
		Allow: []string{
			"group:builtin", "group:wikipedia", "group:exa", "group:asknews",
			"group:fred", "group:company_financials", "group:live_markets",
			"group:historical_markets", "group:trends", "group:notes", "group:arxiv",
		},
	},
}

// ExpandGroups expands group references in a tool list to their constituent tools.
// It handles:
//   - Group references (e.g., "group:notes" -> ["notes"])
//   - Direct tool names (passed through unchanged)
//   - Deduplication of results
func ExpandGroups(items []string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, item := range items {
		if tools, ok := ToolGroups[item]; ok {
			for _, tool := range tools {
				if !seen[tool] {
					seen[tool] = true
					result = append(result, tool)
				}
			}
			continue
		}

		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// GetProfilePolicy returns the policy for a named profile.
// Returns nil if the profile doesn't exist.
func GetProfilePolicy(name string) *Policy {
	return ToolProfiles[name]
}

// ListGroups returns all available group names.
func ListGroups() []string {
	groups := make([]string, 0, len(ToolGroups))
	for name := range ToolGroups {
		groups = append(groups, name)
	}
	return groups
}

// ListProfiles returns all available profile names.
func ListProfiles() []string {
	profiles := make([]string, 0, len(ToolProfiles))
	for name := range ToolProfiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// IsGroup returns true if the name is a valid group reference.
func IsGroup(name string) bool {
	_, ok := ToolGroups[name]
	return ok
}

// GetGroupTools returns the tools in a group, or nil if the group doesn't exist.
func GetGroupTools(name string) []string {
	tools, ok := ToolGroups[name]
	if !ok {
		return nil
	}
	result := make([]string, len(tools))
	copy(result, tools)
	return result
}

// init ensures ToolGroups is synchronized with DefaultGroups
func init() {
	// Copy ToolGroups to DefaultGroups for backwards compatibility
	for name, tools := range ToolGroups {
		DefaultGroups[name] = tools
	}
}
