// File: cmd/plan.go
package cmd

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mzahir/trailcap/internal/config"
	"github.com/mzahir/trailcap/internal/observability"
	"github.com/mzahir/trailcap/internal/planner"
)

// newPlanCmd creates the `plan` command, a dry run that prints the generated
// plan without driving a browser.
func newPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan [query...]",
		Short: "Generates and prints the workflow plan for a query without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to finalize config: %w", err)
			}

			query := strings.Join(args, " ")
			appURL, _ := cmd.Flags().GetString("url")
			appName, _ := cmd.Flags().GetString("app")

			llm, err := planner.NewGeminiClient(ctx, cfg.Planner, logger)
			if err != nil {
				return err
			}
			defer llm.Close()

			plan := planner.New(llm, cfg.Planner, logger).ParseQuery(ctx, query, appName, appURL, nil)

			blob, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render plan: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(blob))
			return nil
		},
	}

	planCmd.Flags().String("url", "", "app URL used for application detection and prompt context")
	planCmd.Flags().String("app", "any", "application name (notion, asana, linear or any)")

	return planCmd
}
