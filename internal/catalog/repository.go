package catalog

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/posapp/pos-backend/internal/platform/db"
)

const (
	maxCodeLen = 13
	maxNameLen = 50
)

// Repository provides PostgreSQL backed access to the product master.
type Repository struct {
	pool db.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByCode returns the product with the given code. A missing code is reported through
// the boolean, never as an error.
func (r *Repository) FindByCode(ctx context.Context, code string) (Product, bool, error) {
	const query = `SELECT id, code, name, price FROM products WHERE code = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, false, nil
		}
		return Product{}, false, fmt.Errorf("catalog: find %q: %w", code, err)
	}
	return p, true, nil
}

// List returns every product ordered by id.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return products, nil
}

// Seed writes the given products. Unless force is set, seeding is skipped when the
// catalog already holds rows. Existing codes are updated in place.
func (r *Repository) Seed(ctx context.Context, items []SeedProduct, force bool) (SeedResult, error) {
	for i, item := range items {
		if err := validateSeed(item); err != nil {
			return SeedResult{}, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	var result SeedResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&result.Existing); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if result.Existing > 0 && !force {
			result.Skipped = true
			return nil
		}
		const upsert = `
			INSERT INTO products (code, name, price)
			VALUES ($1, $2, $3)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`
		for _, item := range items {
			name := pgtype.Text{String: item.Name, Valid: item.Name != ""}
			if _, err := tx.Exec(ctx, upsert, item.Code, name, item.Price); err != nil {
				return fmt.Errorf("upsert %s: %w", item.Code, err)
			}
			result.Written++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("catalog: seed: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p     Product
		name  pgtype.Text
		price pgtype.Int8
	)
	if err := row.Scan(&p.ID, &p.Code, &name, &price); err != nil {
		return Product{}, err
	}
	if name.Valid {
		val := name.String
		p.Name = &val
	}
	if price.Valid {
		val := price.Int64
		p.Price = &val
	}
	return p, nil
}

func validateSeed(item SeedProduct) error {
	switch {
	case item.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidSeed)
	case utf8.RuneCountInString(item.Code) > maxCodeLen:
		return fmt.Errorf("%w: code %q longer than %d", ErrInvalidSeed, item.Code, maxCodeLen)
	case utf8.RuneCountInString(item.Name) > maxNameLen:
		return fmt.Errorf("%w: name for %s longer than %d", ErrInvalidSeed, item.Code, maxNameLen)
	case item.Price < 0:
		return fmt.Errorf("%w: negative price for %s", ErrInvalidSeed, item.Code)
	}
	return nil
}
