package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/posapp/pos-backend/internal/platform/db"
)

func newMigrateCmd(e env) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				files, err := db.SchemaFiles()
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}

			cfg, err := e.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pool, closePool, err := e.openDB(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer closePool()
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), pool)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded schema files and exit")
	return cmd
}

func runMigrate(ctx context.Context, out io.Writer, conn db.Beginner) error {
	applied, err := db.Migrate(ctx, conn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, f := range applied {
		fmt.Fprintf(out, "applied %s\n", f)
	}
	fmt.Fprintf(out, "schema up to date (%d files)\n", len(applied))
	return nil
}
