package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// addStatsCommands adds statistics and export commands.
func addStatsCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Journal statistics and reports",
	}

	cmd.AddCommand(newStatsShowCmd(app))
	cmd.AddCommand(newStatsReportCmd(app))
	cmd.AddCommand(newStatsExportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newStatsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show aggregate trader statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Reporter == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			traderStats, err := app.Reporter.TraderStats(cmd.Context(), app.traderID(cmd))
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(traderStats)
			}

			output.Box("Trader Statistics", []string{
				fmt.Sprintf("Periods:          %d (%d active)", traderStats.TotalPeriods, traderStats.ActivePeriods),
				fmt.Sprintf("Sessions:         %d (%d finished)", traderStats.TotalSessions, traderStats.TerminalSessions),
				fmt.Sprintf("Trades:           %d (%d won)", traderStats.TotalTrades, traderStats.TradesWon),
				fmt.Sprintf("Total P&L:        %s", output.FormatPnL(traderStats.TotalPnL)),
				fmt.Sprintf("Targets Hit:      %d", traderStats.SessionsWithTarget),
				fmt.Sprintf("Loss Stops:       %d", traderStats.SessionsWithStop),
				fmt.Sprintf("Session Win Rate: %s", FormatPercent(traderStats.SessionWinRate)),
				fmt.Sprintf("Trade Win Rate:   %s", FormatPercent(traderStats.TradeWinRate)),
			})
			return nil
		},
	}
}

func newStatsReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report <period-id>",
		Short: "Show a period's session-by-session report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Reporter == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			periodID, err := parseID(args[0])
			if err != nil {
				return err
			}
			// Ownership check before reading the report rows.
			if _, err := app.Service.GetPeriod(cmd.Context(), app.traderID(cmd), periodID); err != nil {
				return err
			}

			rows, err := app.Reporter.PeriodReport(cmd.Context(), periodID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(rows)
			}

			if len(rows) == 0 {
				output.Dim("No sessions recorded.")
				return nil
			}

			table := NewTable(output, "Date", "Start", "End", "P&L", "Trades", "Status")
			for _, row := range rows {
				ending := "-"
				if !row.EndingCapital.IsZero() {
					ending = FormatMoney(row.EndingCapital)
				}
				table.AddRow(
					row.Date,
					FormatMoney(row.StartingCapital),
					ending,
					output.FormatPnL(row.DailyPnL),
					fmt.Sprintf("%d", row.NumTrades),
					row.Status,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newStatsExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports as CSV",
		Long: `Export a period's sessions or a session's trades as CSV to stdout
or to --out.`,
		Example: `  binary-trader stats export --period 3 --out march.csv
  binary-trader stats export --session 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Reporter == nil {
				return fmt.Errorf("store unavailable")
			}

			periodID, _ := cmd.Flags().GetInt64("period")
			sessionID, _ := cmd.Flags().GetInt64("session")
			if (periodID > 0) == (sessionID > 0) {
				return fmt.Errorf("exactly one of --period or --session is required")
			}

			out := cmd.OutOrStdout()
			outPath, _ := cmd.Flags().GetString("out")
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			if periodID > 0 {
				if _, err := app.Service.GetPeriod(cmd.Context(), app.traderID(cmd), periodID); err != nil {
					return err
				}
				return app.Reporter.ExportPeriodCSV(cmd.Context(), periodID, out)
			}

			if _, err := app.Service.SessionStatus(cmd.Context(), app.traderID(cmd), sessionID); err != nil {
				return err
			}
			return app.Reporter.ExportSessionCSV(cmd.Context(), sessionID, out)
		},
	}

	cmd.Flags().Int64("period", 0, "period id to export sessions for")
	cmd.Flags().Int64("session", 0, "session id to export trades for")
	cmd.Flags().String("out", "", "output file (default: stdout)")

	return cmd
}
