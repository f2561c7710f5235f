package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/oracleforge/internal/cron"
)

// buildLoopCmd creates the "loop" command: repeatedly sweep a tournament on
// a fixed interval until interrupted (Ctrl-C / SIGTERM via cmd.Context()).
func buildLoopCmd() *cobra.Command {
	var (
		configPath string
		tournament string
		submit     bool
		allowSpawn bool
		limit      int
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Repeatedly sweep a tournament on an interval",
		Example: `  oracleforge loop --tournament-id minibench --interval 30m --submit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tournament == "" {
				return fmt.Errorf("--tournament-id is required")
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
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

			ctx := cmd.Context()
			schedule := cron.Schedule{Kind: "every", Every: interval}
			execStore := cron.NewMemoryExecutionStore()
			jobID := "tournament-sweep:" + tournament

			for {
				exec := &cron.JobExecution{
					ID:        uuid.NewString(),
					JobID:     jobID,
					Status:    cron.ExecutionRunning,
					StartedAt: time.Now(),
				}
				if err := execStore.Create(ctx, exec); err != nil {
					slog.Warn("failed to record sweep execution start", "error", err)
				}

				succeeded, failed, runErr := runTournamentSweep(ctx, orch, metaclient, historyStore, tournament, limit, submit, allowSpawn)
				exec.CompletedAt = time.Now()
				exec.Duration = exec.CompletedAt.Sub(exec.StartedAt)
				if runErr != nil {
					exec.Status = cron.ExecutionFailed
					exec.Error = runErr.Error()
					slog.Error("sweep failed", "tournament", tournament, "error", runErr)
				} else {
					exec.Status = cron.ExecutionSucceeded
					exec.Output = fmt.Sprintf("succeeded=%d failed=%d", succeeded, failed)
					slog.Info("sweep complete", "tournament", tournament, "succeeded", succeeded, "failed", failed)
				}
				if err := execStore.Update(ctx, exec); err != nil {
					slog.Warn("failed to record sweep execution result", "error", err)
				}

				next, ok, err := schedule.Next(time.Now())
				if err != nil || !ok {
					slog.Error("failed to compute next sweep time", "error", err)
					next = time.Now().Add(interval)
				}

				select {
				case <-ctx.Done():
					slog.Info("loop stopped", "tournament", tournament)
					return nil
				case <-time.After(time.Until(next)):
				}
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&tournament, "tournament-id", "", "Tournament slug or numeric ID (required)")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit each forecast after generating it")
	cmd.Flags().BoolVar(&allowSpawn, "allow-spawn", true, "Allow the agent to decompose into sub-questions")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of questions to sweep per pass")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Minute, "Time between sweeps")

	return cmd
}
