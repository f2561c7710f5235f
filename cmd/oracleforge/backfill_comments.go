package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/haasonsaas/oracleforge/internal/tools/metaculus"
	"github.com/spf13/cobra"
)

// buildBackfillCommentsCmd creates the "backfill-comments" command: post a
// reasoning comment for every saved forecast that was submitted without one
// (e.g. a "submit" run without --comment, or a tournament sweep with
// --submit but no comment step).
func buildBackfillCommentsCmd() *cobra.Command {
	var (
		configPath     string
		privateComment bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "backfill-comments",
		Short: "Post reasoning comments for forecasts submitted without one",
		Example: `  oracleforge backfill-comments

  oracleforge backfill-comments --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Metaculus.Token == "" {
				return fmt.Errorf("METACULUS_TOKEN (or metaculus.token in config) is required")
			}

			historyStore, err := buildHistoryStore(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			metaclient := buildMetaculusClient(cfg)

			records, err := historyStore.ListAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list saved forecasts: %w", err)
			}

			var commented, skipped int
			for _, rec := range records {
				f := rec.Forecast
				if f.SubmittedAt == nil || f.CommentedAt != nil {
					skipped++
					continue
				}

				comment := metaculus.FormatReasoningComment(&f.ForecastOutput)
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "dry run: would comment on post %d (question %d)\n",
						f.PostID, f.QuestionID)
					commented++
					continue
				}

				if err := metaclient.PostComment(cmd.Context(), f.PostID, comment, true, privateComment); err != nil {
					slog.Error("post comment failed", "post_id", f.PostID, "error", err)
					continue
				}
				if err := historyStore.MarkCommented(cmd.Context(), f.PostID, rec.FileName, time.Now()); err != nil {
					slog.Error("failed to mark forecast commented", "post_id", f.PostID, "error", err)
				}
				slog.Info("posted backfilled comment", "post_id", f.PostID, "question_id", f.QuestionID)
				commented++
			}

			slog.Info("backfill complete", "commented", commented, "skipped", skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVar(&privateComment, "private-comment", false, "Mark posted comments private")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be commented without posting")

	return cmd
}
