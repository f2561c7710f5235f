package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/orchestrator"
	"github.com/haasonsaas/oracleforge/internal/tools/history"
	"github.com/haasonsaas/oracleforge/internal/tools/metaculus"
	"github.com/haasonsaas/oracleforge/pkg/models"
	"github.com/spf13/cobra"
)

// buildTournamentCmd creates the "tournament" command: sweep every open
// question in a tournament, forecasting (and optionally submitting) each
// one in turn. A single question's failure is logged and does not abort
// the sweep.
func buildTournamentCmd() *cobra.Command {
	var (
		configPath string
		tournament string
		submit     bool
		allowSpawn bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "tournament",
		Short: "Sweep every open question in a tournament",
		Example: `  oracleforge tournament --tournament-id minibench

  oracleforge tournament --tournament-id 32916 --submit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tournament == "" {
				return fmt.Errorf("--tournament-id is required")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Metaculus.Token == "" {
				return fmt.Errorf("METACULUS_TOKEN (or metaculus.token in config) is required")
			}

			orch, historyStore, err := buildOrchestrator(cfg)
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}
			metaclient := buildMetaculusClient(cfg)

			succeeded, failed, err := runTournamentSweep(cmd.Context(), orch, metaclient, historyStore, tournament, limit, submit, allowSpawn)
			if err != nil {
				return err
			}
			slog.Info("tournament sweep complete", "tournament", tournament, "succeeded", succeeded, "failed", failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&tournament, "tournament-id", "", "Tournament slug or numeric ID (required)")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit each forecast after generating it")
	cmd.Flags().BoolVar(&allowSpawn, "allow-spawn", true, "Allow the agent to decompose into sub-questions")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of questions to sweep")

	return cmd
}

// runTournamentSweep forecasts every open question in tournament, optionally
// submitting each result, and tolerates individual question failures.
// Shared by the one-shot "tournament" command and the repeating "loop" one.
func runTournamentSweep(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	metaclient *metaculus.Client,
	historyStore *history.Store,
	tournament string,
	limit int,
	submit bool,
	allowSpawn bool,
) (succeeded, failed int, err error) {
	questions, err := metaclient.ListQuestions(ctx, metaculus.ListQuestionsOptions{
		Status:      "open",
		Tournaments: []string{tournament},
		Limit:       limit,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("list tournament questions: %w", err)
	}
	slog.Info("tournament sweep starting", "tournament", tournament, "questions", len(questions))

	for _, q := range questions {
		output, runErr := orch.Run(ctx, orchestrator.Input{
			PostID:  q.PostID,
			Options: models.RunOptions{AllowSpawn: allowSpawn},
		})
		if runErr != nil {
			failed++
			slog.Error("forecast failed", "post_id", q.PostID, "title", q.Title, "error", runErr)
			continue
		}

		_, historyFile, histErr := historyStore.Save(ctx, output)
		if histErr != nil {
			slog.Error("failed to save forecast history", "post_id", q.PostID, "error", histErr)
		}

		if submit {
			if submitErr := metaclient.SubmitForecast(ctx, output); submitErr != nil {
				slog.Error("submit failed", "post_id", q.PostID, "error", submitErr)
				failed++
				continue
			}
			if histErr == nil {
				if err := historyStore.MarkSubmitted(ctx, q.PostID, historyFile, time.Now()); err != nil {
					slog.Error("failed to mark forecast submitted", "post_id", q.PostID, "error", err)
				}
			}
		}

		succeeded++
		slog.Info("forecast complete", "post_id", q.PostID, "title", q.Title,
			"cost_usd", output.CostUSD, "submitted", submit)
	}

	return succeeded, failed, nil
}
