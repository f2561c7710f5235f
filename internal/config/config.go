package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the root configuration for a forecasting run: credentials,
// per-tool settings, sandbox policy, retrodict defaults, and budget caps.
// Loaded via Load (YAML/JSON5 with $include support, env-var expansion).
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Metaculus  MetaculusConfig  `yaml:"metaculus"`
	Exa        ExaConfig        `yaml:"exa"`
	AskNews    AskNewsConfig    `yaml:"asknews"`
	FRED       FREDConfig       `yaml:"fred"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Retrodict  RetrodictConfig  `yaml:"retrodict"`
	Budget     BudgetConfig     `yaml:"budget"`
	Logging    LoggingConfig    `yaml:"logging"`
	NotesDir   string           `yaml:"notes_dir"`
	HistoryDir string           `yaml:"history_dir"`
}

// LLMConfig selects and tunes the reasoning model provider.
type LLMConfig struct {
	Provider       string        `yaml:"provider"` // "anthropic" | "bedrock"
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	Region         string        `yaml:"region"` // bedrock only
	MaxTokens      int           `yaml:"max_tokens"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MetaculusConfig holds the tournament platform credential and pacing.
type MetaculusConfig struct {
	Token            string        `yaml:"token"`
	BaseURL          string        `yaml:"base_url"`
	TournamentID     int64         `yaml:"tournament_id"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	MaxConcurrency   int           `yaml:"max_concurrency"`
}

// ExaConfig configures the web-search research tool.
type ExaConfig struct {
	APIKey         string        `yaml:"api_key"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
}

// AskNewsConfig configures the news-search research tool.
type AskNewsConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// FREDConfig configures the economic-data research tool.
type FREDConfig struct {
	APIKey string `yaml:"api_key"`
}

// SandboxConfig configures the code-execution tool.
type SandboxConfig struct {
	Backend        string        `yaml:"backend"` // "docker" | "firecracker"
	PoolSize       int           `yaml:"pool_size"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	NetworkEnabled bool          `yaml:"network_enabled"`
}

// RetrodictConfig carries retrodict-mode defaults read at startup; the
// active per-run cutoff itself travels via context, not this struct.
type RetrodictConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ArchiveTimeoutSecs int   `yaml:"archive_timeout_secs"`
	PyPIOnlyEgress    bool   `yaml:"pypi_only_egress"`
}

// BudgetConfig bounds spend per run and per tournament sweep.
type BudgetConfig struct {
	MaxCostPerQuestionUSD float64 `yaml:"max_cost_per_question_usd"`
	MaxCostTotalUSD       float64 `yaml:"max_cost_total_usd"`
}

// LoggingConfig controls the ambient structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

// Load reads and merges a configuration file (resolving $include
// directives and expanding ${ENV_VAR} references) into a Config.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Metaculus.BaseURL == "" {
		c.Metaculus.BaseURL = "https://www.metaculus.com/api"
	}
	if c.Metaculus.HTTPTimeout == 0 {
		c.Metaculus.HTTPTimeout = 30 * time.Second
	}
	if c.Metaculus.MaxConcurrency == 0 {
		c.Metaculus.MaxConcurrency = 5
	}
	if c.Exa.MaxConcurrency == 0 {
		c.Exa.MaxConcurrency = 3
	}
	if c.Exa.HTTPTimeout == 0 {
		c.Exa.HTTPTimeout = 20 * time.Second
	}
	if c.Sandbox.Backend == "" {
		c.Sandbox.Backend = "docker"
	}
	if c.Sandbox.PoolSize == 0 {
		c.Sandbox.PoolSize = 3
	}
	if c.Sandbox.DefaultTimeout == 0 {
		c.Sandbox.DefaultTimeout = 30 * time.Second
	}
	if c.Retrodict.ArchiveTimeoutSecs == 0 {
		c.Retrodict.ArchiveTimeoutSecs = 15
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.NotesDir == "" {
		c.NotesDir = "notes"
	}
	if c.HistoryDir == "" {
		c.HistoryDir = "history"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-5"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 8192
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = 120 * time.Second
	}
	if c.Metaculus.Token == "" {
		c.Metaculus.Token = os.Getenv("METACULUS_TOKEN")
	}
	if c.Exa.APIKey == "" {
		c.Exa.APIKey = os.Getenv("EXA_API_KEY")
	}
	if c.AskNews.ClientID == "" {
		c.AskNews.ClientID = os.Getenv("ASKNEWS_CLIENT_ID")
	}
	if c.AskNews.ClientSecret == "" {
		c.AskNews.ClientSecret = os.Getenv("ASKNEWS_CLIENT_SECRET")
	}
	if c.FRED.APIKey == "" {
		c.FRED.APIKey = os.Getenv("FRED_API_KEY")
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}
