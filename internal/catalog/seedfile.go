package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

type seedDocument struct {
	Products []SeedProduct `yaml:"products"`
}

// LoadSeedFile reads seed products from a YAML (.yaml, .yml) or Excel (.xlsx) file.
// Codes are folded to half-width and names are NFC-normalized.
func LoadSeedFile(path string) ([]SeedProduct, error) {
	var (
		products []SeedProduct
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		products, err = loadYAMLSeed(path)
	case ".xlsx":
		products, err = loadXLSXSeed(path)
	default:
		return nil, fmt.Errorf("catalog: unsupported seed file %q", path)
	}
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i] = normalizeSeed(products[i])
	}
	return products, nil
}

// normalizeSeed cleans up spreadsheet input: "４９０１２３４５６７８９０" becomes
// "4901234567890" and decomposed kana are recomposed.
func normalizeSeed(p SeedProduct) SeedProduct {
	p.Code = width.Narrow.String(strings.TrimSpace(p.Code))
	p.Name = norm.NFC.String(strings.TrimSpace(p.Name))
	return p
}

func loadYAMLSeed(path string) ([]SeedProduct, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read seed file: %w", err)
	}
	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse seed file: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("%w: %s has no products", ErrInvalidSeed, path)
	}
	return doc.Products, nil
}

// loadXLSXSeed reads the first sheet. The header row names the code, name and price
// columns in any order; blank rows are skipped.
func loadXLSXSeed(path string) ([]SeedProduct, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open seed workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrInvalidSeed, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("catalog: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", ErrInvalidSeed, path)
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"code", "price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", ErrInvalidSeed, required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var products []SeedProduct
	for n, row := range rows[1:] {
		code := cell(row, "code")
		if code == "" {
			continue
		}
		price, err := strconv.ParseInt(cell(row, "price"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d price: %v", ErrInvalidSeed, n+2, err)
		}
		products = append(products, SeedProduct{Code: code, Name: cell(row, "name"), Price: price})
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s has no products", ErrInvalidSeed, path)
	}
	return products, nil
}
