// Package catalog provides read access to the product master used by the point of sale.
package catalog

import "errors"

// Product is a product master row. Name and Price are nullable in the catalog.
type Product struct {
	ID    int64   `json:"id"`
	Code  string  `json:"code"`
	Name  *string `json:"name"`
	Price *int64  `json:"price"`
}

// DisplayName returns the product name or an empty string when unset.
func (p Product) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// UnitPrice returns the price and whether it is set.
func (p Product) UnitPrice() (int64, bool) {
	if p.Price == nil {
		return 0, false
	}
	return *p.Price, true
}

// SeedProduct is one row of catalog seed data.
type SeedProduct struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

// SeedResult reports what a seed run did.
type SeedResult struct {
	Written  int
	Skipped  bool
	Existing int64
}

// Errors returned by seeding.
var (
	ErrInvalidSeed = errors.New("catalog: invalid seed row")
)

// DefaultSeed returns the sample products installed by a fresh setup.
func DefaultSeed() []SeedProduct {
	return []SeedProduct{
		{Code: "4901234567890", Name: "ソフコン", Price: 300},
		{Code: "4901234567891", Name: "福島県ほうれん草", Price: 188},
		{Code: "4901234567892", Name: "タイガー歯ブラシ青", Price: 200},
		{Code: "4901234567893", Name: "四ツ谷サイダー", Price: 160},
	}
}
