package main

import (
	"context"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
	"github.com/haasonsaas/oracleforge/internal/agent/providers"
	"github.com/haasonsaas/oracleforge/internal/config"
	"github.com/haasonsaas/oracleforge/internal/forecast/orchestrator"
	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/internal/tools/financial"
	"github.com/haasonsaas/oracleforge/internal/tools/history"
	"github.com/haasonsaas/oracleforge/internal/tools/markets"
	"github.com/haasonsaas/oracleforge/internal/tools/metaculus"
	"github.com/haasonsaas/oracleforge/internal/tools/news"
	"github.com/haasonsaas/oracleforge/internal/tools/notes"
	"github.com/haasonsaas/oracleforge/internal/tools/policy"
	"github.com/haasonsaas/oracleforge/internal/tools/retrodictsearch"
	"github.com/haasonsaas/oracleforge/internal/tools/sandbox"
	"github.com/haasonsaas/oracleforge/internal/tools/trends"
	"github.com/haasonsaas/oracleforge/internal/tools/wayback"
	"github.com/haasonsaas/oracleforge/internal/tools/websearch"
	"github.com/haasonsaas/oracleforge/internal/tools/wikipedia"
	"github.com/haasonsaas/oracleforge/pkg/models"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// buildProvider constructs the configured LLM backend. Only "anthropic" and
// "bedrock" are wired (the only two agent.LLMProvider implementations in
// internal/agent/providers).
func buildProvider(cfg config.LLMConfig) (agent.LLMProvider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
		})
	case "bedrock":
		return providers.NewBedrockProvider(providers.BedrockConfig{
			Region:       cfg.Region,
			DefaultModel: cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want anthropic or bedrock)", cfg.Provider)
	}
}

// buildRegistry assembles the full agent.ToolRegistry from every available
// research tool, gated only by which credentials are configured — the
// per-run profile/retrodict filtering happens later, inside the
// orchestrator, via policy.Availability. The session-scoped "notes" tool is
// deliberately NOT registered here; the orchestrator constructs one per run
// bound to that run's session ID (see assembleTools in
// internal/forecast/orchestrator/tools.go).
func buildRegistry(cfg *config.Config, historyStore *history.Store) *agent.ToolRegistry {
	registry := agent.NewToolRegistry()

	registry.Register(websearch.NewWebFetchTool(nil))

	financialClient := financial.NewClient(cfg.FRED.APIKey)
	registry.Register(financial.NewFredSeriesTool(financialClient))
	registry.Register(financial.NewFredSearchTool(financialClient))
	registry.Register(financial.NewCompanyFinancialsTool(financialClient))

	marketsClient := markets.NewClient()
	registry.Register(markets.NewPolymarketPriceTool(marketsClient))
	registry.Register(markets.NewManifoldPriceTool(marketsClient))
	registry.Register(markets.NewStockPriceTool(marketsClient))
	registry.Register(markets.NewPolymarketHistoryTool(marketsClient))
	registry.Register(markets.NewManifoldHistoryTool(marketsClient))
	registry.Register(markets.NewStockHistoryTool(marketsClient))

	trendsClient := trends.NewClient()
	registry.Register(trends.NewGoogleTrendsTool(trendsClient))
	registry.Register(trends.NewGoogleTrendsCompareTool(trendsClient))
	registry.Register(trends.NewGoogleTrendsRelatedTool(trendsClient))

	registry.Register(wikipedia.NewTool(wikipedia.NewClient()))

	waybackClient := wayback.NewClient()

	// Exa is the primary search backend when configured; the legacy
	// DuckDuckGo-backed WebSearchTool is the keyless fallback when it
	// isn't, so search is never entirely absent from the registry.
	var exaClient *websearch.ExaClient
	if cfg.Exa.APIKey != "" {
		exaClient = websearch.NewExaClient(cfg.Exa.APIKey, waybackClient)
		registry.Register(websearch.NewExaSearchTool(exaClient))
	} else {
		registry.Register(websearch.NewWebSearchTool(&websearch.Config{
			DefaultBackend: websearch.BackendDuckDuckGo,
			ExtractContent: true,
		}))
	}

	if cfg.AskNews.ClientID != "" && cfg.AskNews.ClientSecret != "" {
		registry.Register(news.NewSearchTool(news.NewClient(cfg.AskNews.ClientID, cfg.AskNews.ClientSecret)))
	}

	registry.Register(retrodictsearch.NewTool(newExaURLSearcher(exaClient), waybackClient))
	registry.Register(history.NewTool(historyStore))

	if metaclient := buildMetaculusClient(cfg); metaclient != nil {
		registry.Register(metaculus.NewGetQuestionsTool(metaclient))
		registry.Register(metaculus.NewListTournamentQuestionsTool(metaclient))
		registry.Register(metaculus.NewSearchTool(metaclient))
		registry.Register(metaculus.NewCoherenceLinksTool(metaclient))
		registry.Register(metaculus.NewCPHistoryTool(metaclient))
	}

	if executor, err := sandbox.NewExecutor(
		sandbox.WithBackend(sandbox.Backend(cfg.Sandbox.Backend)),
		sandbox.WithPoolSize(cfg.Sandbox.PoolSize),
		sandbox.WithDefaultTimeout(cfg.Sandbox.DefaultTimeout),
		sandbox.WithNetworkEnabled(cfg.Sandbox.NetworkEnabled),
	); err == nil {
		forecastTools := sandbox.NewForecastTools(executor)
		registry.Register(sandbox.NewExecuteCodeTool(forecastTools))
		registry.Register(sandbox.NewInstallPackageTool(forecastTools))
	}

	return registry
}

// orchestratorInputFor builds a prebuilt-question Input for a forecast run
// that has no platform post ID (the "test" command's ad-hoc questions).
func orchestratorInputFor(qc *composition.QuestionContext, allowSpawn bool) orchestrator.Input {
	return orchestrator.Input{
		PrebuiltQuestion: qc,
		Options:          models.RunOptions{AllowSpawn: allowSpawn},
	}
}

func buildMetaculusClient(cfg *config.Config) *metaculus.Client {
	if cfg.Metaculus.Token == "" {
		return nil
	}
	return metaculus.NewClient(cfg.Metaculus.BaseURL, cfg.Metaculus.Token, cfg.Metaculus.HTTPTimeout)
}

// buildHistoryStore opens the local forecast-history store used by both the
// get_prediction_history tool and the submit/tournament/backfill-comments
// commands (for recording and later retrieving each attempt).
func buildHistoryStore(cfg *config.Config) (*history.Store, error) {
	return history.NewStore(cfg.HistoryDir)
}

// buildOrchestrator wires an Orchestrator from cfg, with spawn_subquestions
// and dispatch_subagent enabled, plus the history.Store backing
// get_prediction_history and the CLI's own post-run bookkeeping. notesDir=""
// disables the session notes store entirely (used by the "test" command,
// which has no durable workspace to write into).
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, *history.Store, error) {
	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("build llm provider: %w", err)
	}

	var notesStore *notes.Store
	if cfg.NotesDir != "" {
		notesStore, err = notes.NewStore(cfg.NotesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open notes store: %w", err)
		}
	}

	historyStore, err := buildHistoryStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}

	var waybackChecker = wayback.NewClient()

	orch := orchestrator.New(orchestrator.Config{
		Provider:        provider,
		Model:           cfg.LLM.Model,
		Registry:        buildRegistry(cfg, historyStore),
		Credentials:     buildCredentials(cfg),
		MetaculusClient: buildMetaculusClient(cfg),
		NotesStore:      notesStore,
		Wayback:         waybackChecker,
		MaxTokens:       cfg.LLM.MaxTokens,
	})
	orch.EnableComposition()
	orch.EnableSubagentDispatch()
	return orch, historyStore, nil
}

func buildCredentials(cfg *config.Config) policy.Credentials {
	return policy.Credentials{
		MetaculusToken:      cfg.Metaculus.Token,
		ExaAPIKey:           cfg.Exa.APIKey,
		AskNewsClientID:     cfg.AskNews.ClientID,
		AskNewsClientSecret: cfg.AskNews.ClientSecret,
		FREDAPIKey:          cfg.FRED.APIKey,
	}
}

// exaURLSearcher adapts ExaClient to retrodictsearch.URLSearcher, discarding
// everything but the result URLs — retrodict_search rebuilds title/snippet
// from the archived page instead of the live one. If no Exa key is
// configured, SearchURLs reports no candidates rather than erroring, so
// retrodict_search degrades to "no results" instead of failing the run.
type exaURLSearcher struct {
	client *websearch.ExaClient
}

func newExaURLSearcher(client *websearch.ExaClient) *exaURLSearcher {
	return &exaURLSearcher{client: client}
}

func (s *exaURLSearcher) SearchURLs(ctx context.Context, query string, limit int) ([]string, error) {
	if s.client == nil {
		return nil, nil
	}
	results, err := s.client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls, nil
}
