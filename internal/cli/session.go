package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"binary-trader/internal/models"
	"binary-trader/internal/trading"
)

// addSessionCommands adds daily-session commands.
func addSessionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage daily trading sessions",
		Long:  "Open, inspect and close daily sessions inside a trading period.",
	}

	cmd.AddCommand(newSessionOpenCmd(app))
	cmd.AddCommand(newSessionStatusCmd(app))
	cmd.AddCommand(newSessionCloseCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSessionOpenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <period-id>",
		Short: "Open (or fetch) the session for a date",
		Long: `Open the daily session for a period and date, or return the existing
one. A new session snapshots the period's current capital as its
starting capital. Defaults to today in the trading timezone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			periodID, err := parseID(args[0])
			if err != nil {
				return err
			}

			var date time.Time
			if cmd.Flags().Changed("date") {
				if date, err = parseDateFlag(cmd, "date"); err != nil {
					return err
				}
			}

			sess, err := app.Service.GetOrCreateSession(cmd.Context(), app.traderID(cmd), periodID, date)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sess)
			}
			output.Success("✓ Session %d for %s", sess.ID, FormatDate(sess.Date))
			output.Printf("  Starting Capital: %s\n", FormatMoney(sess.StartingCapital))
			output.Printf("  Status:           %s\n", output.SessionStatusTag(string(sess.Status)))
			return nil
		},
	}

	cmd.Flags().String("date", "", "session date (YYYY-MM-DD, default: today)")
	return cmd
}

func newSessionStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session with its next-stake preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}

			view, err := app.Service.SessionStatus(cmd.Context(), app.traderID(cmd), sessionID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(view)
			}
			printSessionView(output, view)
			return nil
		},
	}
}

func newSessionCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a session and settle its capital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}

			sess, err := app.Service.CloseSession(cmd.Context(), app.traderID(cmd), sessionID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sess)
			}
			output.Success("✓ Session %d closed", sess.ID)
			output.Printf("  Daily P&L:       %s\n", output.FormatPnL(sess.DailyPnL))
			output.Printf("  Ending Capital:  %s\n", FormatMoney(sess.EndingCapital))
			return nil
		},
	}
}

func printSessionView(output *Output, view *trading.SessionView) {
	sess := view.Session

	lines := []string{
		fmt.Sprintf("Date:             %s", FormatDate(sess.Date)),
		fmt.Sprintf("Status:           %s", output.SessionStatusTag(string(sess.Status))),
		fmt.Sprintf("Starting Capital: %s", FormatMoney(sess.StartingCapital)),
		fmt.Sprintf("Current Capital:  %s", FormatMoney(view.CurrentCapital)),
		fmt.Sprintf("Daily P&L:        %s", output.FormatPnL(sess.DailyPnL)),
		fmt.Sprintf("Daily Target:     %s", FormatMoney(view.DailyTarget)),
		fmt.Sprintf("Max Daily Loss:   %s", FormatMoney(view.MaxDailyLoss)),
		fmt.Sprintf("Trades:           %d", sess.NumTrades),
	}
	if view.CanContinue {
		lines = append(lines,
			fmt.Sprintf("Next Stake:       %s (step %s)", FormatMoney(view.NextStake),
				FormatStep(view.NextMartingaleStep, view.Period.MartingaleSteps)))
	} else {
		lines = append(lines, "Next Stake:       trading halted")
	}
	output.Box(fmt.Sprintf("Session %d", sess.ID), lines)

	if len(view.Trades) == 0 {
		return
	}

	output.Println()
	table := NewTable(output, "#", "Pair", "Stake", "Result", "P&L", "Capital", "Step")
	for _, tr := range view.Trades {
		table.AddRow(
			fmt.Sprintf("%d", tr.TradeNumber),
			tr.CurrencyPair,
			FormatMoney(tr.Stake),
			formatResultColored(output, tr.Result),
			output.FormatPnL(tr.PnL),
			FormatMoney(tr.CapitalAfter),
			fmt.Sprintf("%d", tr.MartingaleStep),
		)
	}
	table.Render()
}

func formatResultColored(output *Output, result models.Result) string {
	if result == models.ResultITM {
		return output.Green(string(result))
	}
	return output.Red(string(result))
}
