package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/orchestrator"
	"github.com/haasonsaas/oracleforge/pkg/models"
	"github.com/spf13/cobra"
)

// buildRetrodictCmd creates the "retrodict" command: backtest a question as
// of a historical cutoff date, with retrodict mode's live-data restrictions
// applied, and never submits or comments.
func buildRetrodictCmd() *cobra.Command {
	var (
		configPath string
		postID     int64
		cutoffStr  string
		allowSpawn bool
	)

	cmd := &cobra.Command{
		Use:   "retrodict",
		Short: "Backtest a question as of a historical cutoff date",
		Example: `  oracleforge retrodict --post-id 12345 --cutoff 2024-06-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if postID == 0 {
				return fmt.Errorf("--post-id is required")
			}
			cutoff, err := time.Parse("2006-01-02", cutoffStr)
			if err != nil {
				return fmt.Errorf("invalid --cutoff %q (want YYYY-MM-DD): %w", cutoffStr, err)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}

			output, err := orch.Run(cmd.Context(), orchestrator.Input{
				PostID: postID,
				Options: models.RunOptions{
					AllowSpawn:      allowSpawn,
					RetrodictCutoff: &cutoff,
				},
			})
			if err != nil {
				return fmt.Errorf("run retrodict forecast for post %d: %w", postID, err)
			}

			encoded, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("encode forecast output: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().Int64Var(&postID, "post-id", 0, "Platform post ID to backtest (required)")
	cmd.Flags().StringVar(&cutoffStr, "cutoff", "", "Historical cutoff date, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&allowSpawn, "allow-spawn", true, "Allow the agent to decompose into sub-questions")

	return cmd
}
