package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zachittx/inoutboard/internal/hub"
)

// hubCmd runs the bundled Redis-protocol server.
var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Run a shared state hub",
	Long: `Run a small Redis-protocol server that boards can share state through.

Point every board at it with:
  storage:
    backend: redis
    redis:
      addr: hub-host:6380

State is held in memory and lost when the hub stops. Use a real Redis
server when it must survive restarts.

Example:
  inoutboard hub --addr :6380 --password s3cret`,
	Args: cobra.NoArgs,
	RunE: runHub,
}

func init() {
	rootCmd.AddCommand(hubCmd)
	hubCmd.Flags().String("addr", ":6380", "listen address")
	hubCmd.Flags().String("password", "", "require AUTH with this password")
}

func runHub(cmd *cobra.Command, args []string) error {
	logger := newLogger(slog.LevelInfo)

	addr, _ := cmd.Flags().GetString("addr")
	password, _ := cmd.Flags().GetString("password")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.New(addr, password, logger)
	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	<-ctx.Done()
	return nil
}
