package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/askdb/askdb/internal/errors"
)

// ConfigCommand displays the active configuration
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration merged from file and environment variables.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runConfig(ctx, os.Stdout)
		},
	}
}

func runConfig(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if cfg == nil {
		return errors.New(errors.ErrTypeConfig, "failed to load configuration")
	}

	fmt.Fprintln(out, "Active Configuration")
	fmt.Fprintln(out, "====================")

	fmt.Fprintln(out, "\nDatabase:")
	fmt.Fprintf(out, "  Path: %s\n", cfg.Database.Path)
	fmt.Fprintf(out, "  Max Connections: %d\n", cfg.Database.MaxConnections)
	fmt.Fprintf(out, "  Query Timeout: %s\n", cfg.Database.QueryTimeout)
	fmt.Fprintf(out, "  Seed Sample Data: %t\n", cfg.Database.SeedSampleData)

	fmt.Fprintln(out, "\nLLM:")
	fmt.Fprintf(out, "  Provider: %s\n", cfg.LLM.Provider)
	fmt.Fprintf(out, "  Model: %s\n", cfg.LLM.Model)
	fmt.Fprintf(out, "  Timeout: %s\n", cfg.LLM.Timeout)
	fmt.Fprintf(out, "  Max Tokens: %d\n", cfg.LLM.MaxTokens)

	if cfg.LLM.BaseURL != "" {
		fmt.Fprintf(out, "  Base URL: %s\n", cfg.LLM.BaseURL)
	}

	if cfg.LLM.APIKey != "" {
		fmt.Fprintln(out, "  API Key: (set)")
	}

	fmt.Fprintln(out, "\nQuery:")
	fmt.Fprintf(out, "  Default Table: %s\n", cfg.Query.DefaultTable)
	fmt.Fprintf(out, "  Max Repairs: %d\n", cfg.Query.MaxRepairs)
	fmt.Fprintf(out, "  Enhance Questions: %t\n", cfg.Query.Enhance)

	fmt.Fprintln(out, "\nPaths:")
	fmt.Fprintf(out, "  Output: %s\n", cfg.Paths.Output)

	fmt.Fprintln(out, "\nLogging:")
	fmt.Fprintf(out, "  Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Fprintf(out, "  File: %s\n", cfg.Logging.File)
	}

	return nil
}
