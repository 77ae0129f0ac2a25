// Package catalog is the read-mostly product catalog the calculator prices
// against.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("product not found")

// Repository reads and writes products in SQLite.
type Repository struct {
	db         *sql.DB
	defaultTax float64
}

// NewRepository returns a Repository. Products stored without a tax
// percentage are returned with defaultTax.
func NewRepository(db *sql.DB, defaultTax float64) *Repository {
	return &Repository{db: db, defaultTax: defaultTax}
}

// ListParams filters List.
type ListParams struct {
	Search     string
	ActiveOnly bool
}

// List returns products ordered by name.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Product, error) {
	query := strings.TrimSpace(params.Search)
	search := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, weight, main_type, COALESCE(sub_type, ''), sale_amount, tax_percentage, pricing_basis, status
		FROM products
		WHERE (? = '' OR name LIKE ?)
		  AND (? = 0 OR status = 'A')
		ORDER BY name ASC, id ASC
	`, query, search, boolToInt(params.ActiveOnly))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Get returns one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, weight, main_type, COALESCE(sub_type, ''), sale_amount, tax_percentage, pricing_basis, status
		FROM products
		WHERE id = ?
	`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Create inserts p and returns it with its id set.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	if p.Status == "" {
		p.Status = StatusActive
	}
	p.PricingBasis = p.Basis()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO products (name, weight, main_type, sub_type, sale_amount, tax_percentage, pricing_basis, status)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`, p.Name, p.UnitWeight(), string(p.MainType), string(p.SubType), p.SaleAmount, p.TaxPercentage, string(p.PricingBasis), p.Status)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Product{}, fmt.Errorf("read product id: %w", err)
	}
	p.ID = id
	if p.TaxPercentage <= 0 {
		p.TaxPercentage = r.defaultTax
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scan(s scanner) (Product, error) {
	var (
		p        Product
		mainType string
		subType  string
		basis    string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Weight, &mainType, &subType, &p.SaleAmount, &p.TaxPercentage, &basis, &p.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, err
		}
		return Product{}, fmt.Errorf("scan product: %w", err)
	}

	var err error
	if p.MainType, err = ParseMainType(mainType); err != nil {
		return Product{}, fmt.Errorf("product %d: %w", p.ID, err)
	}
	if p.SubType, err = ParseCalculationType(subType); err != nil {
		return Product{}, fmt.Errorf("product %d: %w", p.ID, err)
	}
	p.PricingBasis = PricingBasis(strings.ToUpper(basis))
	p.PricingBasis = p.Basis()
	if p.TaxPercentage <= 0 {
		p.TaxPercentage = r.defaultTax
	}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
