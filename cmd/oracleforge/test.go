package main

import (
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/tools/composition"
	"github.com/haasonsaas/oracleforge/pkg/models"
	"github.com/spf13/cobra"
)

// buildTestCmd creates the "test" command: forecast an ad-hoc question
// without touching the platform (no fetch, no submit, no comment).
func buildTestCmd() *cobra.Command {
	var (
		configPath         string
		title              string
		questionType       string
		description        string
		resolutionCriteria string
		options            []string
		allowSpawn         bool
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Forecast an ad-hoc question without touching the platform",
		Example: `  oracleforge test --title "Will X happen by 2027?" --type binary

  oracleforge test --title "Who wins the election?" --type multiple_choice \
    --options "Candidate A,Candidate B,Candidate C"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			qtype := models.QuestionType(questionType)
			switch qtype {
			case models.QuestionBinary, models.QuestionNumeric, models.QuestionDiscrete,
				models.QuestionMultipleChoice, models.QuestionDate:
			default:
				return fmt.Errorf("--type must be one of binary, numeric, discrete, multiple_choice, date (got %q)", questionType)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return fmt.Errorf("build orchestrator: %w", err)
			}

			qc := &composition.QuestionContext{
				Title:              title,
				Type:               qtype,
				Description:        description,
				ResolutionCriteria: resolutionCriteria,
				Options:            options,
			}

			output, err := orch.Run(cmd.Context(), orchestratorInputFor(qc, allowSpawn))
			if err != nil {
				return fmt.Errorf("run forecast: %w", err)
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
	cmd.Flags().StringVar(&title, "title", "", "Question title (required)")
	cmd.Flags().StringVar(&questionType, "type", string(models.QuestionBinary), "Question type: binary, numeric, discrete, multiple_choice, date")
	cmd.Flags().StringVar(&description, "description", "", "Question background/description")
	cmd.Flags().StringVar(&resolutionCriteria, "resolution-criteria", "", "Resolution criteria text")
	cmd.Flags().StringSliceVar(&options, "options", nil, "Comma-separated options (multiple_choice only)")
	cmd.Flags().BoolVar(&allowSpawn, "allow-spawn", true, "Allow the agent to decompose into sub-questions")

	return cmd
}
