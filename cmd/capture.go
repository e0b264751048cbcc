// File: cmd/capture.go
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mzahir/trailcap/internal/browser"
	"github.com/mzahir/trailcap/internal/capture"
	"github.com/mzahir/trailcap/internal/config"
	"github.com/mzahir/trailcap/internal/evidence"
	"github.com/mzahir/trailcap/internal/locator"
	"github.com/mzahir/trailcap/internal/observability"
	"github.com/mzahir/trailcap/internal/planner"
	"github.com/mzahir/trailcap/internal/statesig"
)

// newCaptureCmd creates and configures the `capture` command.
func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture [query...]",
		Short: "Executes a natural-language task against a web app and records the workflow",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line flags override
			// config file and environment values.
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.output_dir", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to finalize config: %w", err)
			}

			query := strings.Join(args, " ")
			appURL, _ := cmd.Flags().GetString("url")
			taskID, _ := cmd.Flags().GetString("task-id")

			llm, err := planner.NewGeminiClient(ctx, cfg.Planner, logger)
			if err != nil {
				return err
			}
			defer llm.Close()

			session, err := browser.NewSession(ctx, cfg.Browser, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			capturer := capture.NewCapturer(
				session,
				locator.NewResolver(session, logger),
				statesig.NewService(session, logger),
				evidence.NewManager(filepath.Join(cfg.Capture.OutputDir, "screenshots"), logger),
				planner.New(llm, cfg.Planner, logger),
				capture.NewStore(cfg.Capture.OutputDir),
				cfg.Capture,
				logger,
			)

			record, err := capturer.CaptureWorkflow(ctx, query, appURL, taskID)
			if err != nil {
				return err
			}

			logger.Info("Capture finished",
				zap.String("task_id", record.TaskID),
				zap.String("status", string(record.Status)),
				zap.Int("steps", len(record.Steps)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s (%d steps)\n",
				record.TaskID, record.Status, len(record.Steps))
			fmt.Fprintf(cmd.OutOrStdout(), "record: %s\n",
				capture.NewStore(cfg.Capture.OutputDir).RecordPath(record.TaskID))
			return nil
		},
	}

	captureCmd.Flags().String("url", "", "URL of the web application to drive")
	captureCmd.Flags().String("task-id", "", "task identifier (generated when empty)")
	captureCmd.Flags().Bool("headless", true, "run the browser headless")
	captureCmd.Flags().StringP("output", "o", "output", "directory for records and screenshots")
	_ = captureCmd.MarkFlagRequired("url")

	return captureCmd
}
