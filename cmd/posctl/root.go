package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/posapp/pos-backend/internal/app"
	"github.com/posapp/pos-backend/internal/platform/cache"
	"github.com/posapp/pos-backend/internal/platform/db"
)

// env resolves the resources a command needs. Tests replace it.
type env struct {
	loadConfig func() (*app.Config, error)
	openDB     func(ctx context.Context, cfg *app.Config) (db.Pool, func(), error)
	openRedis  func(ctx context.Context, cfg *app.Config) (*redis.Client, error)
}

func defaultEnv() env {
	return env{
		loadConfig: app.LoadConfig,
		openDB: func(ctx context.Context, cfg *app.Config) (db.Pool, func(), error) {
			pool, err := db.New(ctx, cfg.DSN(), cfg.DBMaxConns)
			if err != nil {
				return nil, nil, err
			}
			return pool, pool.Close, nil
		},
		openRedis: func(ctx context.Context, cfg *app.Config) (*redis.Client, error) {
			if !cfg.RedisEnabled() {
				return nil, nil
			}
			return cache.New(ctx, cfg.RedisOptions())
		},
	}
}

func newRootCmd(e env) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Operate the POS backend database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newMigrateCmd(e), newSeedCmd(e), newVersionCmd())
	return root
}
