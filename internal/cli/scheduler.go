package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addSchedulerCommands adds daily-rollover commands.
func addSchedulerCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Daily session rollover",
		Long: `Run the daily rollover: close sessions left open from previous days
and open today's session for every active period covering today.`,
	}

	cmd.AddCommand(newSchedulerRunCmd(app))
	cmd.AddCommand(newSchedulerDaemonCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSchedulerRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one rollover pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Scheduler == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			summary, err := app.Scheduler.Run(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}
			output.Success("✓ Rollover complete")
			output.Printf("  Closed stale sessions: %d\n", summary.Closed)
			output.Printf("  Opened sessions:       %d\n", summary.Created)
			output.Printf("  Already open:          %d\n", summary.Existing)
			if summary.Errors > 0 {
				output.Warning("  Errors:                %d (see log)", summary.Errors)
			}
			return nil
		},
	}
}

func newSchedulerDaemonCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the rollover at every local midnight",
		Long: `Run one rollover pass immediately, then one shortly after every
midnight in the trading timezone. Blocks until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Scheduler == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)
			output.Info("Scheduler running, timezone %s. Ctrl-C to stop.", app.Config.Trading.Timezone)
			return app.Scheduler.RunForever(cmd.Context())
		},
	}
}
