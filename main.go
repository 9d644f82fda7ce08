package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"binary-trader/internal/cli"
	"binary-trader/internal/config"
	"binary-trader/internal/logging"
)

func main() {
	// The config directory flag has to be read before cobra parses
	// anything: loading config decides how the app is wired.
	configDir := ""
	fs := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.StringVar(&configDir, "config", "", "")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(cfg.Logging)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
