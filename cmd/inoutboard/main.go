// Package main is the entry point for the inoutboard CLI.
//
// inoutboard can be run either as a library (SDK) or as a standalone binary
// with a configuration file. This CLI provides the standalone binary approach.
//
// Usage:
//
//	inoutboard serve -c board.yaml        # Start the board
//	inoutboard validate -c board.yaml     # Validate configuration
//	inoutboard status list -c board.yaml  # Print who is in
//	inoutboard status set ada in          # Check someone in
//	inoutboard hub --addr :6380           # Run a shared state hub
//	inoutboard version                    # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "inoutboard",
	Short: "An in/out presence board",
	Long: `inoutboard is an in/out presence board for offices and front desks.

It serves a read-only display grouped by team with live "in" counts and
a kiosk page for checking people in and out. Every open view, and every
board sharing the same storage, stays in sync without reloading.

Quick start:
  1. Run: inoutboard serve
  2. Open http://localhost:8080 in your browser

Sharing state between several boards:
  storage:
    backend: sqlite      # or redis
    path: /srv/board.db`,
	SilenceUsage: true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this inoutboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inoutboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (.yaml, .json or .jsonc)")
}
