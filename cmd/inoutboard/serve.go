package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the board server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board server",
	Long: `Start the inoutboard server.

The server will:
  - Load configuration from the given file, or use the built-in people
  - Open the configured storage and reconcile the stored list
  - Serve the display, kiosk and API on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  inoutboard serve
  inoutboard serve -c board.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("debug", false, "log at debug level")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	board, cfg, err := newBoard(cmd, logger)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"people", len(board.Records()),
		"groups", len(board.Groups()),
		"storage", cfg.Storage.Backend,
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- board.Start(ctx)
	}()

	select {
	case err := <-done:
		return serveResult(err, logger)
	case <-ctx.Done():
	}

	// signal received; give open SSE streams time to drain
	select {
	case err := <-done:
		return serveResult(err, logger)
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
		return nil
	}
}

func serveResult(err error, logger *slog.Logger) error {
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
