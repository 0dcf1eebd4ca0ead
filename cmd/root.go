// Package cmd wires the CLI commands to the query generation pipeline.
package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/logging"
)

type contextKey string

const configContextKey contextKey = "askdb-config"

// Execute runs the CLI with the process arguments
func Execute() error {
	return NewRootCommand().Run(context.Background(), os.Args)
}

// NewRootCommand assembles the askdb command tree
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "askdb",
		Usage: "Ask questions about your data in plain language",
		Description: `askdb answers natural-language questions about an analytical database.
It generates a SQL query with a language model, validates it against the
table schema, repairs rejected candidates, executes the final query, and
summarizes the results.`,
		Commands: []*cli.Command{
			AskCommand(),
			TablesCommand(),
			SchemaCommand(),
			ConfigCommand(),
		},
	}
}

// withConfig stores a configuration in the context, used by tests
func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// getConfigFromContext returns the injected configuration, or nil
func getConfigFromContext(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configContextKey).(*config.Config)
	return cfg
}

// loadConfig resolves the active configuration: an injected config wins,
// otherwise file plus environment are loaded and logging is initialized.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if cfg := getConfigFromContext(ctx); cfg != nil {
		return cfg, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg.ExpandAllPaths()

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	}); err != nil {
		logging.SetupFallbackLogger()
	}

	return cfg, nil
}
