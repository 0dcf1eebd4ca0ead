package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/storage"
)

// SchemaCommand prints the column layout of a table
func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "Show the schema of a table",
		ArgsUsage:   "[table]",
		Description: `Display the columns, types, and descriptions of a table. Defaults to the configured default table.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSchema(ctx, nil, cmd.Args().First(), os.Stdout)
		},
	}
}

func runSchema(ctx context.Context, provider schema.Provider, table string, out io.Writer) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if table == "" {
		table = cfg.Query.DefaultTable
	}

	if !schema.ValidTableName(table) {
		return errors.Newf(errors.ErrTypeSchema, "invalid table name %q", table)
	}

	if provider == nil {
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

		provider = schema.NewDBProvider(store.DB())
	}

	desc, err := provider.GetSchema(ctx, table)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Schema for %s (%d columns)\n\n", table, desc.Len())
	fmt.Fprintf(out, "%-25s %-12s %s\n", "COLUMN", "TYPE", "DESCRIPTION")

	for _, col := range desc.Columns() {
		d := col.Description
		if d == "" {
			d = "-"
		}

		fmt.Fprintf(out, "%-25s %-12s %s\n", col.Name, col.Type, d)
	}

	return nil
}
