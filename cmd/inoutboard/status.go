package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zachittx/inoutboard"
	"github.com/zachittx/inoutboard/config"
)

// statusCmd groups commands that read or change the shared list from
// the command line.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read or change who is in",
	Long: `Read or change the shared list from the command line.

The command joins the configured storage like any other board, so
changes appear on every open display immediately. Memory storage is
private to one process and cannot be used here.`,
}

var statusListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print everyone grouped by team",
	Args:  cobra.NoArgs,
	RunE:  runStatusList,
}

var statusSetCmd = &cobra.Command{
	Use:   "set <id> <in|out>",
	Short: "Check someone in or out",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatusSet,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(statusListCmd, statusSetCmd)
}

// connectShared connects to the configured storage, refusing memory.
func connectShared(cmd *cobra.Command) (*inoutboard.Client, error) {
	logger := newLogger(slog.LevelWarn)

	board, cfg, err := newBoard(cmd, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == config.BackendMemory {
		return nil, fmt.Errorf("status commands need shared storage; configure storage.backend %q or %q",
			config.BackendSQLite, config.BackendRedis)
	}

	return board.Connect(cmd.Context())
}

func runStatusList(cmd *cobra.Command, args []string) error {
	client, err := connectShared(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	views, err := client.Board(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	for _, g := range views {
		fmt.Printf("%s (%d/%d in)\n", g.Title, g.In, g.Total)
		for _, r := range g.Records {
			fmt.Printf("  %-4s %-24s %-12s %s\n", r.Status, r.Name, r.ID, formatUpdatedAt(r.UpdatedAt))
		}
	}
	return nil
}

func runStatusSet(cmd *cobra.Command, args []string) error {
	id := args[0]
	status, err := inoutboard.ParseStatus(strings.ToLower(args[1]))
	if err != nil {
		return err
	}

	client, err := connectShared(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := client.Records(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	var name string
	for _, r := range records {
		if r.ID == id {
			name = r.Name
			break
		}
	}
	if name == "" {
		return fmt.Errorf("unknown id %q", id)
	}

	if err := client.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	fmt.Printf("%s is %s\n", name, status)
	return nil
}

// formatUpdatedAt renders a millisecond timestamp, or "-" for never.
func formatUpdatedAt(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format(time.DateTime)
}
