package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/posapp/pos-backend/internal/catalog"
)

// seeder writes catalog rows.
type seeder interface {
	Seed(ctx context.Context, items []catalog.SeedProduct, force bool) (catalog.SeedResult, error)
}

// invalidator drops cached lookups after the catalog changed.
type invalidator interface {
	Bump(ctx context.Context) error
}

func newSeedCmd(e env) *cobra.Command {
	var (
		file  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample products into the catalog",
		Long: `Load products into the catalog. Without --file the four sample products are
written. --file accepts .yaml/.yml with a top-level "products" list or .xlsx with a
code,name,price header row. Seeding is skipped when products already exist unless
--force is given, which upserts by code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := catalog.DefaultSeed()
			if file != "" {
				loaded, err := catalog.LoadSeedFile(file)
				if err != nil {
					return err
				}
				items = loaded
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

			var cache *catalog.Cache
			client, err := e.openRedis(cmd.Context(), cfg)
			if err != nil {
				slog.Default().Warn("redis unavailable, cache not invalidated", slog.Any("error", err))
			} else if client != nil {
				defer client.Close()
				cache = catalog.NewCache(client, cfg.CatalogCacheTTL)
			}

			return runSeed(cmd.Context(), cmd.OutOrStdout(), catalog.NewRepository(pool), cache, items, force)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (.yaml, .yml or .xlsx)")
	cmd.Flags().BoolVar(&force, "force", false, "upsert even when the catalog is not empty")
	return cmd
}

func runSeed(ctx context.Context, out io.Writer, repo seeder, cache invalidator, items []catalog.SeedProduct, force bool) error {
	result, err := repo.Seed(ctx, items, force)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if result.Skipped {
		fmt.Fprintf(out, "catalog already holds %d products, skipping (use --force to upsert)\n", result.Existing)
		return nil
	}
	if cache != nil {
		if err := cache.Bump(ctx); err != nil {
			slog.Default().Warn("bump catalog cache", slog.Any("error", err))
		}
	}
	fmt.Fprintf(out, "seeded %d products\n", result.Written)
	return nil
}
