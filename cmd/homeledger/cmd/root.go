// Package cmd provides CLI commands for homeledger.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/pkg/config"
)

var debug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "homeledger",
	Short: "Personal finance ledger with bank statement import",
	Long: `homeledger is a personal finance ledger. It imports bank statements
(CSV, Excel, and OCR-extracted PDF text from Sberbank and Yandex),
deduplicates them into a local SQLite ledger, and reports on budgets
and recurring payments.

Example:
  homeledger import statement.csv
  homeledger list --from 01.01.2025
  homeledger report --month 2025-01
  homeledger export ledger.xlsx`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := parseLogLevel(os.Getenv("LOG_LEVEL"))
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(recurCmd)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the environment configuration.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	exitOnError(err, "failed to load configuration")
	return cfg
}

// exitOnError logs the error and exits.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
