package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zachittx/inoutboard"
)

func main() {
	board, err := inoutboard.New(
		inoutboard.WithTitle("Demo Office"),
		inoutboard.WithPort(8080),
		inoutboard.WithChangeCallback(func(records []inoutboard.Record) {
			slog.Info("board changed", "in", inoutboard.CountIn(records), "total", len(records))
		}),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   In/Out Board Demo                                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Display: http://localhost:8080/display              ║")
	fmt.Println("  ║   Kiosk:   http://localhost:8080/kiosk                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A simulated badge reader checks people in and out   ║")
	fmt.Println("  ║   every few seconds.                                  ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the reader is its own client, so its swipes reach the views the
	// same way a second kiosk's would (see badge_reader.go)
	reader, err := board.Connect(ctx)
	if err != nil {
		slog.Error("failed to connect badge reader", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reader.Close() }()
	go RunBadgeReader(ctx, reader)

	if err := board.Start(ctx); err != nil {
		slog.Error("board error", "error", err)
		os.Exit(1)
	}
}
