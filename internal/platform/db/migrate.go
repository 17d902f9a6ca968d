package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
)

// MigrationLockKey is the transaction-scoped advisory lock held while the schema is applied.
const MigrationLockKey int64 = 0x706f735f736368

//go:embed schema/*.sql
var schemaFS embed.FS

// SchemaFiles lists the embedded schema files in apply order.
func SchemaFiles() ([]string, error) {
	names, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded schema file inside a single transaction.
// Statements are written to be re-runnable.
func Migrate(ctx context.Context, db Beginner) ([]string, error) {
	names, err := SchemaFiles()
	if err != nil {
		return nil, fmt.Errorf("platform/db: list schema: %w", err)
	}
	err = WithTx(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", MigrationLockKey); err != nil {
			return fmt.Errorf("platform/db: acquire migration lock: %w", err)
		}
		for _, name := range names {
			body, err := schemaFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("platform/db: read %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("platform/db: apply %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
