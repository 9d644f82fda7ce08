package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"binary-trader/internal/models"
	"binary-trader/internal/trading"
)

// addPeriodCommands adds trading-period management commands.
func addPeriodCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Manage trading periods",
		Long:  "Create, inspect and update multi-day trading periods.",
	}

	cmd.AddCommand(newPeriodCreateCmd(app))
	cmd.AddCommand(newPeriodListCmd(app))
	cmd.AddCommand(newPeriodShowCmd(app))
	cmd.AddCommand(newPeriodUpdateCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPeriodCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trading period",
		Long: `Create a trading period with its capital and risk parameters.

Percentages are fractions of capital: --risk 0.05 risks 5% per base
stake. Unset percentages fall back to the configured defaults.`,
		Example: `  binary-trader period create --start 2024-03-01 --end 2024-03-31 --capital 1000
  binary-trader period create --start 2024-03-01 --end 2024-03-31 --capital 500 --risk 0.03 --steps 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			params, err := periodParamsFromFlags(cmd, app)
			if err != nil {
				return err
			}

			period, err := app.Service.CreatePeriod(cmd.Context(), app.traderID(cmd), params)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(period)
			}
			output.Success("✓ Period %d created", period.ID)
			printPeriod(output, period)
			return nil
		},
	}

	cmd.Flags().String("start", "", "start date (YYYY-MM-DD, required)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD, required)")
	cmd.Flags().String("capital", "", "initial capital (required)")
	cmd.Flags().String("target", "", "daily profit target as capital fraction")
	cmd.Flags().String("payout", "", "expected broker payout as fraction")
	cmd.Flags().String("risk", "", "base stake as capital fraction")
	cmd.Flags().Int("steps", -1, "martingale escalation steps")
	cmd.Flags().String("max-loss", "", "daily loss stop as capital fraction")
	cmd.Flags().String("nickname", "", "period nickname")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("capital")

	return cmd
}

func periodParamsFromFlags(cmd *cobra.Command, app *App) (trading.PeriodParams, error) {
	var params trading.PeriodParams
	var err error

	if params.StartDate, err = parseDateFlag(cmd, "start"); err != nil {
		return params, err
	}
	if params.EndDate, err = parseDateFlag(cmd, "end"); err != nil {
		return params, err
	}
	if params.InitialCapital, err = parseDecimalFlag(cmd, "capital", decimal.Zero); err != nil {
		return params, err
	}

	defaults := app.Config.Defaults
	if params.DailyTargetPct, err = parseDecimalFlag(cmd, "target", decimal.NewFromFloat(defaults.DailyTargetPct)); err != nil {
		return params, err
	}
	if params.PayoutPct, err = parseDecimalFlag(cmd, "payout", decimal.NewFromFloat(defaults.PayoutPct)); err != nil {
		return params, err
	}
	if params.RiskPerTradePct, err = parseDecimalFlag(cmd, "risk", decimal.NewFromFloat(defaults.RiskPerTradePct)); err != nil {
		return params, err
	}
	if params.MaxDailyLossPct, err = parseDecimalFlag(cmd, "max-loss", decimal.NewFromFloat(defaults.MaxDailyLossPct)); err != nil {
		return params, err
	}

	steps, _ := cmd.Flags().GetInt("steps")
	if steps < 0 {
		steps = defaults.MartingaleSteps
	}
	params.MartingaleSteps = steps

	params.Nickname, _ = cmd.Flags().GetString("nickname")
	return params, nil
}

func newPeriodListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trading periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			periods, err := app.Service.ListPeriods(cmd.Context(), app.traderID(cmd))
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(periods)
			}

			if len(periods) == 0 {
				output.Dim("No trading periods found.")
				return nil
			}

			table := NewTable(output, "ID", "Nickname", "Start", "End", "Capital", "Current", "Status")
			for _, p := range periods {
				table.AddRow(
					fmt.Sprintf("%d", p.ID),
					TruncateString(p.Nickname, 20),
					FormatDate(p.StartDate),
					FormatDate(p.EndDate),
					FormatMoney(p.InitialCapital),
					FormatMoney(p.CurrentCapital),
					string(p.Status),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPeriodShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <period-id>",
		Short: "Show a trading period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Service == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)

			periodID, err := parseID(args[0])
			if err != nil {
				return err
			}

			period, err := app.Service.GetPeriod(cmd.Context(), app.traderID(cmd), periodID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(period)
			}
			printPeriod(output, period)
			return nil
		},
	}
}

func newPeriodUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <period-id>",
		Short: "Update a trading period",
		Long: `Update a trading period's parameters. Only the supplied flags change.

Changing the initial capital also resets the running capital, but only
while the period has no recorded sessions.`,
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

			upd, err := periodUpdateFromFlags(cmd)
			if err != nil {
				return err
			}

			period, err := app.Service.UpdatePeriod(cmd.Context(), app.traderID(cmd), periodID, upd)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(period)
			}
			output.Success("✓ Period %d updated", period.ID)
			printPeriod(output, period)
			return nil
		},
	}

	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().String("capital", "", "initial capital")
	cmd.Flags().String("target", "", "daily profit target as capital fraction")
	cmd.Flags().String("payout", "", "expected broker payout as fraction")
	cmd.Flags().String("risk", "", "base stake as capital fraction")
	cmd.Flags().Int("steps", -1, "martingale escalation steps")
	cmd.Flags().String("max-loss", "", "daily loss stop as capital fraction")
	cmd.Flags().String("status", "", "period status: active, completed, paused")
	cmd.Flags().String("nickname", "", "period nickname")

	return cmd
}

func periodUpdateFromFlags(cmd *cobra.Command) (trading.PeriodUpdate, error) {
	var upd trading.PeriodUpdate

	if cmd.Flags().Changed("start") {
		date, err := parseDateFlag(cmd, "start")
		if err != nil {
			return upd, err
		}
		upd.StartDate = &date
	}
	if cmd.Flags().Changed("end") {
		date, err := parseDateFlag(cmd, "end")
		if err != nil {
			return upd, err
		}
		upd.EndDate = &date
	}

	for _, f := range []struct {
		name   string
		target **decimal.Decimal
	}{
		{"capital", &upd.InitialCapital},
		{"target", &upd.DailyTargetPct},
		{"payout", &upd.PayoutPct},
		{"risk", &upd.RiskPerTradePct},
		{"max-loss", &upd.MaxDailyLossPct},
	} {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		value, err := parseDecimalFlag(cmd, f.name, decimal.Zero)
		if err != nil {
			return upd, err
		}
		*f.target = &value
	}

	if cmd.Flags().Changed("steps") {
		steps, _ := cmd.Flags().GetInt("steps")
		upd.MartingaleSteps = &steps
	}
	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status := models.PeriodStatus(raw)
		upd.Status = &status
	}
	if cmd.Flags().Changed("nickname") {
		nickname, _ := cmd.Flags().GetString("nickname")
		upd.Nickname = &nickname
	}

	return upd, nil
}

func printPeriod(output *Output, p *models.Period) {
	output.Box(fmt.Sprintf("Period %d", p.ID), []string{
		fmt.Sprintf("Nickname:        %s", p.Nickname),
		fmt.Sprintf("Dates:           %s to %s", FormatDate(p.StartDate), FormatDate(p.EndDate)),
		fmt.Sprintf("Initial Capital: %s", FormatMoney(p.InitialCapital)),
		fmt.Sprintf("Current Capital: %s", FormatMoney(p.CurrentCapital)),
		fmt.Sprintf("Daily Target:    %s", FormatPercent(p.DailyTargetPct)),
		fmt.Sprintf("Max Daily Loss:  %s", FormatPercent(p.MaxDailyLossPct)),
		fmt.Sprintf("Risk per Trade:  %s", FormatPercent(p.RiskPerTradePct)),
		fmt.Sprintf("Payout:          %s", FormatPercent(p.PayoutPct)),
		fmt.Sprintf("Martingale:      %d steps", p.MartingaleSteps),
		fmt.Sprintf("Status:          %s", p.Status),
	})
}

// parseID parses a positional numeric id argument.
func parseID(arg string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	date, err := time.Parse(models.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: use YYYY-MM-DD", name, raw)
	}
	return date, nil
}

func parseDecimalFlag(cmd *cobra.Command, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: not a number", name, raw)
	}
	return value, nil
}
