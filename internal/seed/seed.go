// Package seed fills an empty catalog with the starter products used in
// development, and normalizes catalog type spellings written by imports.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/coatworks/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// DefaultProducts is the starter catalog: one product per variant.
var DefaultProducts = []catalog.Product{
	{Name: "Door Handle", MainType: catalog.MainTypeNos, SaleAmount: 250, TaxPercentage: 18},
	{Name: "Aluminium Section 40x40", MainType: catalog.MainTypeRegular, SubType: catalog.CalculationSqFeet, Weight: 0.62, SaleAmount: 45, TaxPercentage: 18},
	{Name: "Powder Coated Sheet", MainType: catalog.MainTypeRegular, SubType: catalog.CalculationMM, Weight: 1.35, SaleAmount: 110, TaxPercentage: 18},
	{Name: "Poly Carbonate Sheet 4mm", MainType: catalog.MainTypePolyCarbonate, Weight: 0.8, SaleAmount: 95, TaxPercentage: 18},
	{Name: "Coated Flat Bar", MainType: catalog.MainTypeRegular, SubType: catalog.CalculationMM, Weight: 2.1, SaleAmount: 320, TaxPercentage: 12, PricingBasis: catalog.PricingByWeight},
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, products []catalog.Product) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := normalizeTypes(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	for _, p := range products {
		if err := ensureProduct(ctx, tx, p, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureProduct(ctx context.Context, tx *sql.Tx, p catalog.Product, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE name = ? LIMIT 1)`, p.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check product %q existence: %w", p.Name, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (name, weight, main_type, sub_type, sale_amount, tax_percentage, pricing_basis, status)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`, p.Name, p.UnitWeight(), string(p.MainType), string(p.SubType), p.SaleAmount, p.TaxPercentage, string(p.Basis()), catalog.StatusActive); err != nil {
		return fmt.Errorf("insert product %q: %w", p.Name, err)
	}
	stats.Inserts++
	return nil
}

// normalizeTypes rewrites spellings such as "Poly Carbonate" or "sf" to the
// canonical names. Rows with unknown spellings are left for an operator.
func normalizeTypes(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, main_type, COALESCE(sub_type, '')
		FROM products
		WHERE main_type NOT IN ('NOS', 'REGULAR', 'POLY_CARBONATE')
		   OR (sub_type IS NOT NULL AND sub_type NOT IN ('SQ_FEET', 'MM'))
	`)
	if err != nil {
		return fmt.Errorf("query product types: %w", err)
	}

	type fix struct {
		id       int64
		mainType catalog.MainType
		subType  catalog.CalculationType
	}
	var fixes []fix
	for rows.Next() {
		var (
			id              int64
			rawMain, rawSub string
		)
		if err := rows.Scan(&id, &rawMain, &rawSub); err != nil {
			rows.Close()
			return fmt.Errorf("scan product types: %w", err)
		}
		mainType, err := catalog.ParseMainType(rawMain)
		if err != nil {
			continue
		}
		subType, err := catalog.ParseCalculationType(rawSub)
		if err != nil {
			continue
		}
		fixes = append(fixes, fix{id: id, mainType: mainType, subType: subType})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate product types: %w", err)
	}
	rows.Close()

	for _, f := range fixes {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET main_type = ?, sub_type = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, string(f.mainType), string(f.subType), f.id); err != nil {
			return fmt.Errorf("normalize product %d: %w", f.id, err)
		}
		stats.Updates++
	}
	return nil
}
