package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/storage"
)

// TablesCommand lists the tables available for questions
func TablesCommand() *cli.Command {
	return &cli.Command{
		Name:        "tables",
		Usage:       "List the tables in the database",
		Description: `Show every table available for questions, with row counts.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runTables(ctx, nil, os.Stdout)
		},
	}
}

func runTables(ctx context.Context, lister schema.Lister, out io.Writer) error {
	if lister == nil {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Database.Path)
		if err != nil {
			return err
		}

		defer func() { _ = store.Close() }()

		if cfg.Database.SeedSampleData {
			if err := store.Seed(ctx); err != nil {
				return err
			}
		}

		lister = schema.NewDBProvider(store.DB())
	}

	tables, err := lister.ListTables(ctx)
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		fmt.Fprintln(out, "No tables found.")
		return nil
	}

	fmt.Fprintf(out, "%-30s %12s  %s\n", "TABLE", "ROWS", "DESCRIPTION")

	for _, info := range tables {
		desc := info.Description
		if desc == "" {
			desc = "-"
		}

		fmt.Fprintf(out, "%-30s %12d  %s\n", info.Name, info.Rows, desc)
	}

	return nil
}
