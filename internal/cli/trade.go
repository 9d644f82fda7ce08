package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"binary-trader/internal/models"
	"binary-trader/internal/trading"
)

// addTradeCommands adds trade registration commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Register trade outcomes",
	}

	cmd.AddCommand(newTradeRegisterCmd(app))
	cmd.AddCommand(newTradeListCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeRegisterCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <session-id> <result>",
		Short: "Register a trade outcome",
		Long: `Register the outcome of one executed trade. The stake is never
supplied: the engine derives it from the staking plan and the session's
trade history, so it always matches the previewed next stake.

Result is ITM (win) or OTM (loss).`,
		Example: `  binary-trader trade register 12 ITM --pair EUR/USD
  binary-trader trade register 12 OTM --pair GBP/JPY --payout 0.75`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			sessionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			result := models.Result(strings.ToUpper(args[1]))

			pair, _ := cmd.Flags().GetString("pair")

			var payout decimal.Decimal
			if cmd.Flags().Changed("payout") {
				if payout, err = parseDecimalFlag(cmd, "payout", decimal.Zero); err != nil {
					return err
				}
			} else {
				// The period's configured payout is the default when the
				// platform-reported one is not supplied.
				view, err := app.Service.SessionStatus(cmd.Context(), app.traderID(cmd), sessionID)
				if err != nil {
					return err
				}
				payout = view.Period.PayoutPct
			}

			outcome, err := app.Service.RegisterTrade(cmd.Context(), app.traderID(cmd), sessionID, result, pair, payout)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(outcome)
			}
			printTradeOutcome(output, outcome)
			return nil
		},
	}

	cmd.Flags().String("pair", "", "currency pair, e.g. EUR/USD (required)")
	cmd.Flags().String("payout", "", "actual payout fraction for this trade (default: period payout)")
	cmd.MarkFlagRequired("pair")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <session-id>",
		Short: "List a session's trades",
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
				return output.JSON(view.Trades)
			}

			if len(view.Trades) == 0 {
				output.Dim("No trades registered.")
				return nil
			}

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
			return nil
		},
	}
}

func printTradeOutcome(output *Output, outcome *trading.TradeOutcome) {
	tr := outcome.Trade

	output.Success("✓ Trade #%d registered: %s %s at %s",
		tr.TradeNumber, tr.CurrencyPair, FormatResult(tr.Result), FormatMoney(tr.Stake))
	output.Printf("  P&L:             %s\n", output.FormatPnL(tr.PnL))
	output.Printf("  Capital:         %s\n", FormatMoney(outcome.CurrentCapital))
	output.Printf("  Daily P&L:       %s (target %s, stop -%s)\n",
		output.FormatPnL(outcome.Session.DailyPnL),
		FormatMoney(outcome.DailyTarget), FormatMoney(outcome.MaxDailyLoss))
	output.Printf("  Session:         %s\n", output.SessionStatusTag(string(outcome.Session.Status)))

	if outcome.CanContinue {
		output.Printf("  Next Stake:      %s (step %d)\n",
			FormatMoney(outcome.NextStake), outcome.NextMartingaleStep)
	} else {
		output.Warning("  Trading halted for this session.")
	}
}
