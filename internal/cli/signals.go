package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"binary-trader/internal/models"
	"binary-trader/internal/signals"
	"binary-trader/internal/store"
)

// addSignalCommands adds trade-signal commands.
func addSignalCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Record and query ingested trade signals",
	}

	cmd.AddCommand(newSignalRecordCmd(app))
	cmd.AddCommand(newSignalListCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSignalRecordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <raw-message>",
		Short: "Record a trade signal",
		Long: `Record one ingested trade signal. The raw message is stored verbatim;
parsed fields are optional and best-effort.`,
		Example: `  binary-trader signal record "EUR/USD CALL 5m" --pair EUR/USD --direction CALL --expiration 5m`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Signals == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			in := signals.SignalInput{RawMessage: args[0]}
			in.MessageID, _ = cmd.Flags().GetString("message-id")
			in.Pair, _ = cmd.Flags().GetString("pair")
			in.Direction, _ = cmd.Flags().GetString("direction")
			in.Strategy, _ = cmd.Flags().GetString("strategy")
			in.Conditions, _ = cmd.Flags().GetString("conditions")
			in.Expiration, _ = cmd.Flags().GetString("expiration")

			sig, err := app.Signals.Record(cmd.Context(), in)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sig)
			}
			output.Success("✓ Signal %d recorded", sig.ID)
			return nil
		},
	}

	cmd.Flags().String("message-id", "", "upstream message id")
	cmd.Flags().String("pair", "", "currency pair")
	cmd.Flags().String("direction", "", "signal direction: CALL or PUT")
	cmd.Flags().String("strategy", "", "strategy name")
	cmd.Flags().String("conditions", "", "entry conditions")
	cmd.Flags().String("expiration", "", "expiration, e.g. 5m")

	return cmd
}

func newSignalListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Signals == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			filter := store.SignalFilter{}
			filter.Pair, _ = cmd.Flags().GetString("pair")
			filter.Strategy, _ = cmd.Flags().GetString("strategy")
			filter.Limit, _ = cmd.Flags().GetInt("limit")

			if raw, _ := cmd.Flags().GetString("from"); raw != "" {
				from, err := time.Parse(models.DateFormat, raw)
				if err != nil {
					return fmt.Errorf("invalid --from %q: use YYYY-MM-DD", raw)
				}
				filter.From = from
			}
			if raw, _ := cmd.Flags().GetString("to"); raw != "" {
				to, err := time.Parse(models.DateFormat, raw)
				if err != nil {
					return fmt.Errorf("invalid --to %q: use YYYY-MM-DD", raw)
				}
				// Inclusive end of day.
				filter.To = to.Add(24*time.Hour - time.Nanosecond)
			}

			sigs, err := app.Signals.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sigs)
			}

			if len(sigs) == 0 {
				output.Dim("No signals found.")
				return nil
			}

			table := NewTable(output, "ID", "Date", "Pair", "Dir", "Strategy", "Message")
			for _, sig := range sigs {
				table.AddRow(
					fmt.Sprintf("%d", sig.ID),
					FormatDateTime(sig.Date, app.Config.Location()),
					sig.Pair,
					string(sig.Direction),
					sig.Strategy,
					TruncateString(sig.RawMessage, 40),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("pair", "", "filter by pair substring")
	cmd.Flags().String("strategy", "", "filter by strategy")
	cmd.Flags().String("from", "", "from date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "to date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 50, "max results")

	return cmd
}
