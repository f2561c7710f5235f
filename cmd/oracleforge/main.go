// Package main provides the CLI entry point for the oracleforge
// forecasting agent.
//
// oracleforge runs an autonomous LLM agent against a Metaculus-shaped
// tournament platform: it researches a question with a battery of tools
// (web/news/wiki search, economic and market data, sandboxed code
// execution, sub-question decomposition), reasons to a forecast, and
// either prints it or submits it to the platform.
//
// # Basic Usage
//
// Smoke-test a question without touching any platform:
//
//	oracleforge test --title "Will X happen by 2027?" --type binary
//
// Forecast and submit a single tournament question:
//
//	oracleforge submit --post-id 12345
//
// Sweep every open question in a tournament:
//
//	oracleforge tournament --tournament-id 32916
//
// # Environment Variables
//
//   - ORACLEFORGE_CONFIG: path to the YAML configuration file
//   - ANTHROPIC_API_KEY, METACULUS_TOKEN, EXA_API_KEY, ASKNEWS_CLIENT_ID,
//     ASKNEWS_CLIENT_SECRET, FRED_API_KEY: credentials, also settable in config
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "oracleforge",
		Short:        "oracleforge - autonomous forecasting agent",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildTestCmd(),
		buildSubmitCmd(),
		buildRetrodictCmd(),
		buildTournamentCmd(),
		buildLoopCmd(),
		buildBackfillCommentsCmd(),
	)

	return rootCmd
}
