package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zachittx/inoutboard"
	"github.com/zachittx/inoutboard/config"
)

// loadConfig reads the --config file, or returns the built-in defaults
// when none is given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Parse(nil)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newBoard builds a board from the --config file.
func newBoard(cmd *cobra.Command, logger *slog.Logger) (*inoutboard.Board, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, inoutboard.WithLogger(logger))

	board, err := inoutboard.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create board: %w", err)
	}
	return board, cfg, nil
}
