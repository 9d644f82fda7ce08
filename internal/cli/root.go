package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"binary-trader/internal/config"
	"binary-trader/internal/logging"
	"binary-trader/internal/scheduler"
	"binary-trader/internal/signals"
	"binary-trader/internal/stats"
	"binary-trader/internal/store"
	"binary-trader/internal/trading"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.Store
	Service   *trading.Service
	Scheduler *scheduler.Scheduler
	Reporter  *stats.Reporter
	Signals   *signals.Service
	Clock     trading.Clock
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Clock:  trading.NewClock(cfg.Location()),
	}

	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, journal commands will be unavailable")
	} else {
		app.Store = dataStore
		app.Service = trading.NewService(dataStore, app.Clock, logger)
		app.Scheduler = scheduler.New(app.Service, dataStore, app.Clock, logger)
		app.Reporter = stats.NewReporter(dataStore)
		app.Signals = signals.NewService(dataStore, logger)
		logger.Debug().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "binary-trader",
		Short: "Binary options trading journal with staking discipline",
		Long: `binary-trader is a trading journal and risk manager for binary options.

It derives every stake from a martingale staking plan, tracks daily
sessions against profit targets and loss stops, and settles session
outcomes into multi-day trading periods.

Use 'binary-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/binary-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int64("trader", 0, "trader id (default: trading.trader_id from config)")

	addCoreCommands(rootCmd, app)
	addPeriodCommands(rootCmd, app)
	addSessionCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addSchedulerCommands(rootCmd, app)
	addStatsCommands(rootCmd, app)
	addSignalCommands(rootCmd, app)

	return rootCmd
}

// traderID resolves the trader for a command: the --trader flag when
// set, otherwise the configured journal owner.
func (a *App) traderID(cmd *cobra.Command) int64 {
	if id, _ := cmd.Flags().GetInt64("trader"); id > 0 {
		return id
	}
	return a.Config.Trading.TraderID
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("binary-trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Database")
	output.Printf("  Path:            %s\n", cfg.Database.Path)
	output.Println()

	output.Bold("Trading")
	output.Printf("  Timezone:        %s\n", cfg.Trading.Timezone)
	output.Printf("  Trader ID:       %d\n", cfg.Trading.TraderID)
	output.Println()

	output.Bold("Period Defaults")
	output.Printf("  Daily Target:    %.1f%%\n", cfg.Defaults.DailyTargetPct*100)
	output.Printf("  Payout:          %.1f%%\n", cfg.Defaults.PayoutPct*100)
	output.Printf("  Risk per Trade:  %.1f%%\n", cfg.Defaults.RiskPerTradePct*100)
	output.Printf("  Martingale Steps: %d\n", cfg.Defaults.MartingaleSteps)
	output.Printf("  Max Daily Loss:  %.1f%%\n", cfg.Defaults.MaxDailyLossPct*100)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)

	return nil
}
