package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachittx/inoutboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an inoutboard configuration file without starting the server.

This command parses the file, expands environment variables, and validates
all fields, including that every group member is a configured person.
It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  inoutboard validate -c board.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	people := fmt.Sprintf("%d", len(cfg.People))
	if len(cfg.People) == 0 {
		people = "built-in"
	}
	groups := fmt.Sprintf("%d", len(cfg.Groups))
	if len(cfg.Groups) == 0 {
		groups = "built-in"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:    %d\n", cfg.Port)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Backend)
	fmt.Printf("  People:  %s\n", people)
	fmt.Printf("  Groups:  %s\n", groups)

	return nil
}
