package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Binary Trader Configuration

[database]
# SQLite database path (defaults to journal.db in the config directory)
# path = "/home/you/.config/binary-trader/journal.db"

[trading]
# IANA timezone defining the trading day boundary
timezone = "America/Bogota"
# Journal owner id
trader_id = 1

[defaults]
# Defaults applied to new trading periods. All percentages are
# fractions of capital (0.05 = 5%).
daily_target_pct = 0.15
payout_pct = 0.80
risk_per_trade_pct = 0.05
martingale_steps = 3
max_daily_loss_pct = 0.06

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to console
console = true
# Log to rotating file
file = true
# Log file path (defaults to logs/journal.log in the config directory)
# file_path = "/home/you/.config/binary-trader/logs/journal.log"
# Max log file size in MB before rotation
max_size = 100
# Number of rotated files to keep
max_backups = 7
# Max age of rotated files in days
max_age = 30
`

// createTemplateConfig writes a commented starter config so first runs
// proceed on defaults and leave an editable file behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
