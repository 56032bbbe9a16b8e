package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"slate/internal/catalog"
	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/releases"
	"slate/internal/scheduler"
)

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run one promotion pass immediately",
		Long:  "Promotes every due pending series and episode in a single pass, without the daemon.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := logging.NewFromConfig(cfg, "")
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *catalog.Store) error {
				notifier := notifications.NewService(cfg)
				sched := scheduler.New(cfg,
					releases.NewSeriesPromoter(store, logger, notifier),
					releases.NewEpisodePromoter(store, logger),
					notifier, logger)

				result, runErr := sched.RunNow(cmd.Context())

				if jsonOutput {
					summary := map[string]any{
						"promoted_series":   len(result.Series.Promoted),
						"promoted_episodes": len(result.Episodes.Promoted),
						"deferred_episodes": len(result.Episodes.Skipped),
						"failed":            result.Failed(),
						"duration":          result.Duration.Round(time.Millisecond).String(),
					}
					if runErr != nil {
						summary["error"] = runErr.Error()
					}
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
					return runErr
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Promoted %d series and %d episodes in %s\n",
					len(result.Series.Promoted),
					len(result.Episodes.Promoted),
					result.Duration.Round(time.Millisecond))
				if deferred := len(result.Episodes.Skipped); deferred > 0 {
					fmt.Fprintf(stdout, "Deferred %d episodes waiting on unreleased series\n", deferred)
				}
				if failed := result.Failed(); failed > 0 {
					fmt.Fprintf(stdout, "%d records failed; see the log for details\n", failed)
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "ntfy topic not configured")
				return nil
			}
			notifier := notifications.NewService(cfg)
			if err := notifier.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
