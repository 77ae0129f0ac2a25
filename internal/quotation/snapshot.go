package quotation

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/measure"
	"github.com/Simplici0/coatworks/internal/pricing"
)

// LineSnapshot is a line as it is submitted and stored. Derived values are
// kept so a saved document can be shown without recalculating.
type LineSnapshot struct {
	ProductID          int64                   `json:"productId"`
	ProductName        string                  `json:"productName,omitempty"`
	ProductType        catalog.MainType        `json:"productType,omitempty"`
	CalculationType    catalog.CalculationType `json:"calculationType,omitempty"`
	Quantity           float64                 `json:"quantity"`
	Weight             float64                 `json:"weight"`
	UnitPrice          float64                 `json:"unitPrice"`
	DiscountPercentage float64                 `json:"discountPercentage"`
	TaxPercentage      *float64                `json:"taxPercentage,omitempty"`
	Price              float64                 `json:"price"`
	Tax                float64                 `json:"tax"`
	FinalPrice         float64                 `json:"finalPrice"`
	Measurements       []measure.Row           `json:"measurements,omitempty"`
	MeasurementTotals  *measure.Totals         `json:"measurementTotals,omitempty"`
}

// DocumentSnapshot is a whole document as it is submitted and stored.
type DocumentSnapshot struct {
	Header

	ID        int64          `json:"id,omitempty"`
	Reference string         `json:"reference,omitempty"`
	Lines     []LineSnapshot `json:"items"`
	Totals    pricing.Totals `json:"totals"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// Snapshot captures the line's current values.
func (l *Line) Snapshot() LineSnapshot {
	a := l.Amounts()
	tax := l.taxPct
	s := LineSnapshot{
		CalculationType:    l.calcType,
		Quantity:           l.quantity,
		Weight:             l.Weight(),
		UnitPrice:          l.unitPrice,
		DiscountPercentage: l.discount,
		TaxPercentage:      &tax,
		Price:              a.Price,
		Tax:                a.Tax,
		FinalPrice:         a.FinalPrice,
		Measurements:       l.Rows(),
	}
	if l.product != nil {
		s.ProductID = l.product.ID
		s.ProductName = l.product.Name
		s.ProductType = l.product.MainType
	}
	if len(l.rows) > 0 {
		totals := l.totals
		s.MeasurementTotals = &totals
	}
	return s
}

// Snapshot captures the document with its lines and totals.
func (d *Document) Snapshot() DocumentSnapshot {
	lines := make([]LineSnapshot, 0, len(d.lines))
	for _, l := range d.lines {
		lines = append(lines, l.Snapshot())
	}
	return DocumentSnapshot{
		Header:    d.Header,
		ID:        d.ID,
		Reference: d.Reference,
		Lines:     lines,
		Totals:    d.Totals(),
	}
}

// ProductSource resolves product ids while a snapshot is restored.
type ProductSource interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

// FromSnapshot rebuilds an editable document from a submitted or saved
// snapshot. Each line is replayed through the normal line operations, so
// every derived value is recomputed from the snapshot's inputs and the
// current catalog entry.
func FromSnapshot(ctx context.Context, snap DocumentSnapshot, products ProductSource, defaultTax float64) (*Document, error) {
	d := New(snap.Kind, defaultTax)
	d.Header = snap.Header
	if d.Status == "" {
		d.Status = StatusQuote
	}
	d.ID = snap.ID
	d.Reference = snap.Reference

	for i, ls := range snap.Lines {
		l := d.AddLine()
		if ls.ProductID == 0 {
			continue
		}
		p, err := products.Get(ctx, ls.ProductID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: product %d: %w", i, ls.ProductID, err)
		}
		if !p.Active() {
			return nil, fmt.Errorf("items[%d]: product %d: %w", i, ls.ProductID, catalog.ErrInactive)
		}
		if err := restoreLine(l, p, ls); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return d, nil
}

func restoreLine(l *Line, p catalog.Product, ls LineSnapshot) error {
	if err := l.SelectProduct(p); err != nil {
		return err
	}
	if !p.RequiresMeasurements() {
		if err := l.SetQuantity(ls.Quantity); err != nil {
			return err
		}
	}
	// a regular line without a type is left awaiting one so Validate reports it
	restore := len(ls.Measurements) > 0 || ls.CalculationType != ""
	if p.NeedsCalculationType() {
		restore = ls.CalculationType != ""
	}
	if restore {
		if err := l.RestoreMeasurements(ls.CalculationType, ls.Measurements); err != nil {
			return err
		}
	}
	l.SetUnitPrice(ls.UnitPrice)
	l.SetDiscountPercentage(ls.DiscountPercentage)
	// an absent tax keeps the product or default tax; an explicit 0 is kept
	if ls.TaxPercentage != nil {
		l.SetTaxPercentage(*ls.TaxPercentage)
	}
	return nil
}
