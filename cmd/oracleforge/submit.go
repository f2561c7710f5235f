package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/orchestrator"
	"github.com/haasonsaas/oracleforge/internal/tools/metaculus"
	"github.com/haasonsaas/oracleforge/pkg/models"
	"github.com/spf13/cobra"
)

// buildSubmitCmd creates the "submit" command: forecast a single tournament
// question by post ID and submit the result to the platform, optionally
// attaching a reasoning comment.
func buildSubmitCmd() *cobra.Command {
	var (
		configPath     string
		postID         int64
		allowSpawn     bool
		postComment    bool
		privateComment bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Forecast a single tournament question and submit it",
		Example: `  oracleforge submit --post-id 12345

  oracleforge submit --post-id 12345 --comment --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if postID == 0 {
				return fmt.Errorf("--post-id is required")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Metaculus.Token == "" {
				return fmt.Errorf("METACULUS_TOKEN (or metaculus.token in config) is required to submit")
			}

			orch, historyStore, err := buildOrchestrator(cfg)
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}
			metaclient := buildMetaculusClient(cfg)

			output, err := orch.Run(cmd.Context(), orchestrator.Input{
				PostID:  postID,
				Options: models.RunOptions{AllowSpawn: allowSpawn},
			})
			if err != nil {
				return fmt.Errorf("run forecast for post %d: %w", postID, err)
			}

			slog.Info("forecast complete", "post_id", postID, "question_id", output.QuestionID,
				"cost_usd", output.CostUSD, "duration", output.Duration)

			_, historyFile, histErr := historyStore.Save(cmd.Context(), output)
			if histErr != nil {
				slog.Error("failed to save forecast history", "post_id", postID, "error", histErr)
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: would submit forecast for question %d\n%s\n",
					output.QuestionID, output.Reasoning)
				return nil
			}

			if err := metaclient.SubmitForecast(cmd.Context(), output); err != nil {
				return fmt.Errorf("submit forecast: %w", err)
			}
			slog.Info("submitted forecast", "post_id", postID, "question_id", output.QuestionID)
			if histErr == nil {
				if err := historyStore.MarkSubmitted(cmd.Context(), postID, historyFile, time.Now()); err != nil {
					slog.Error("failed to mark forecast submitted", "post_id", postID, "error", err)
				}
			}

			if postComment {
				comment := metaculus.FormatReasoningComment(output)
				if err := metaclient.PostComment(cmd.Context(), postID, comment, true, privateComment); err != nil {
					return fmt.Errorf("post comment: %w", err)
				}
				slog.Info("posted reasoning comment", "post_id", postID)
				if histErr == nil {
					if err := historyStore.MarkCommented(cmd.Context(), postID, historyFile, time.Now()); err != nil {
						slog.Error("failed to mark forecast commented", "post_id", postID, "error", err)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().Int64Var(&postID, "post-id", 0, "Platform post ID to forecast (required)")
	cmd.Flags().BoolVar(&allowSpawn, "allow-spawn", true, "Allow the agent to decompose into sub-questions")
	cmd.Flags().BoolVar(&postComment, "comment", false, "Also post a reasoning comment")
	cmd.Flags().BoolVar(&privateComment, "private-comment", false, "Mark the posted comment private")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Forecast but do not submit or comment")

	return cmd
}
