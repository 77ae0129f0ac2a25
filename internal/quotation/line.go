// Package quotation holds the editable model of a quotation or purchase:
// lines moving through product selection, measurement and pricing, and the
// document that totals and validates them before it is saved.
package quotation

import (
	"errors"
	"fmt"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/measure"
	"github.com/Simplici0/coatworks/internal/pricing"
)

var (
	ErrNoProduct                = errors.New("no product selected")
	ErrDialogNotOpen            = errors.New("measurement dialog is not open")
	ErrModeMismatch             = errors.New("measurement rows do not match the line's calculation type")
	ErrQuantityFromMeasurements = errors.New("quantity of a measured product comes from its measurements")
)

// State is where a line is in the select, measure and price flow.
type State int

const (
	StateNoProduct State = iota
	StateProductSelected
	StateAwaitingCalculationType
	StateMeasurementDialogOpen
	StatePriced
)

func (s State) String() string {
	switch s {
	case StateNoProduct:
		return "no_product"
	case StateProductSelected:
		return "product_selected"
	case StateAwaitingCalculationType:
		return "awaiting_calculation_type"
	case StateMeasurementDialogOpen:
		return "measurement_dialog_open"
	case StatePriced:
		return "priced"
	}
	return "unknown"
}

// Line is one editable line item. Every mutating method leaves the derived
// values (measurement totals, quantity, weight, price) consistent.
type Line struct {
	defaultTax float64

	product   *catalog.Product
	calcType  catalog.CalculationType
	desc      measure.Descriptor
	quantity  float64
	unitPrice float64
	discount  float64
	taxPct    float64

	rows     []measure.Row
	totals   measure.Totals
	measured bool
	sheet    *measure.Sheet

	amounts pricing.Line
}

// NewLine returns an empty line. defaultTax is used for products stored
// without a tax percentage.
func NewLine(defaultTax float64) *Line {
	return &Line{defaultTax: defaultTax, quantity: 1}
}

// SelectProduct switches the line to p. The measurement table and the
// calculation type are cleared; unit price and tax are copied from p.
func (l *Line) SelectProduct(p catalog.Product) error {
	var ct catalog.CalculationType
	if p.MainType == catalog.MainTypePolyCarbonate {
		ct = catalog.CalculationSqFeet
	}
	var d measure.Descriptor
	if !p.NeedsCalculationType() {
		var err error
		if d, err = measure.DescriptorFor(p, ct); err != nil {
			return err
		}
	}

	l.product = &p
	l.calcType = ct
	l.desc = d
	l.rows = nil
	l.totals = measure.Totals{}
	l.measured = false
	l.sheet = nil
	l.unitPrice = p.SaleAmount
	l.taxPct = p.TaxPercentage
	if l.taxPct <= 0 {
		l.taxPct = l.defaultTax
	}
	if p.RequiresMeasurements() {
		l.quantity = 0
	} else if l.quantity <= 0 {
		l.quantity = 1
	}
	l.recompute()
	return nil
}

// ChooseCalculationType picks SQ_FEET or MM for a regular product. Choosing
// a different type clears the measurement table.
func (l *Line) ChooseCalculationType(ct catalog.CalculationType) error {
	if l.product == nil {
		return ErrNoProduct
	}
	if !l.product.NeedsCalculationType() {
		return catalog.ErrCalculationTypeForbidden
	}
	if ct == "" {
		return catalog.ErrCalculationTypeRequired
	}
	d, err := measure.DescriptorFor(*l.product, ct)
	if err != nil {
		return err
	}
	if ct != l.calcType {
		l.rows = nil
		l.totals = measure.Totals{}
		l.measured = false
		l.quantity = 0
	}
	l.calcType = ct
	l.desc = d
	l.sheet = nil
	l.recompute()
	return nil
}

func (l *Line) descriptor() (measure.Descriptor, error) {
	if l.product == nil {
		return measure.Descriptor{}, ErrNoProduct
	}
	if l.product.NeedsCalculationType() && l.calcType == "" {
		return measure.Descriptor{}, catalog.ErrCalculationTypeRequired
	}
	return l.desc, nil
}

// OpenMeasurements opens the calculation dialog on a working copy of the
// saved rows. The line is unchanged until the sheet is confirmed.
func (l *Line) OpenMeasurements() (*measure.Sheet, error) {
	d, err := l.descriptor()
	if err != nil {
		return nil, err
	}
	l.sheet = measure.NewSheet(d, l.quantity, l.rows)
	return l.sheet, nil
}

// Sheet returns the open dialog's working copy, or nil.
func (l *Line) Sheet() *measure.Sheet { return l.sheet }

// ConfirmMeasurements validates the open sheet and applies it.
func (l *Line) ConfirmMeasurements() error {
	if l.sheet == nil {
		return ErrDialogNotOpen
	}
	res, err := l.sheet.Confirm()
	if err != nil {
		return err
	}
	return l.ApplyMeasurements(res)
}

// ApplyMeasurements stores a confirmed table. Measured products take their
// quantity from the table; NOS lines keep the typed quantity.
func (l *Line) ApplyMeasurements(res measure.Result) error {
	d, err := l.descriptor()
	if err != nil {
		return err
	}
	if res.Mode != d.Mode {
		return fmt.Errorf("%w: got %s, want %s", ErrModeMismatch, res.Mode, d.Mode)
	}
	l.rows = make([]measure.Row, len(res.Rows))
	for i, r := range res.Rows {
		l.rows[i] = r.Compute(d, l.quantity)
	}
	l.measured = len(l.rows) > 0
	l.sheet = nil
	l.recompute()
	return nil
}

// CancelMeasurements closes the dialog and discards its edits.
func (l *Line) CancelMeasurements() {
	l.sheet = nil
}

// RestoreMeasurements loads a saved table in edit mode. Derived values are
// recomputed from the saved inputs.
func (l *Line) RestoreMeasurements(ct catalog.CalculationType, rows []measure.Row) error {
	if l.product == nil {
		return ErrNoProduct
	}
	if l.product.NeedsCalculationType() {
		if err := l.ChooseCalculationType(ct); err != nil {
			return err
		}
	} else if _, err := l.product.Kind(ct); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return l.ApplyMeasurements(measure.Result{Mode: l.desc.Mode, Rows: rows})
}

// SetQuantity sets the quantity of a NOS line. NOS measurement rows scale
// with it and are recomputed.
func (l *Line) SetQuantity(q float64) error {
	if l.product == nil {
		return ErrNoProduct
	}
	if l.product.RequiresMeasurements() {
		return ErrQuantityFromMeasurements
	}
	l.quantity = q
	for i, r := range l.rows {
		l.rows[i] = r.Compute(l.desc, q)
	}
	l.recompute()
	return nil
}

// SetUnitPrice overrides the unit price copied from the product.
func (l *Line) SetUnitPrice(v float64) {
	l.unitPrice = v
	l.recompute()
}

// SetDiscountPercentage sets the discount. Values outside 0..100 are kept
// for validation but price as no discount.
func (l *Line) SetDiscountPercentage(v float64) {
	l.discount = v
	l.recompute()
}

// SetTaxPercentage overrides the product's tax percentage.
func (l *Line) SetTaxPercentage(v float64) {
	l.taxPct = v
	l.recompute()
}

func (l *Line) recompute() {
	if l.product == nil {
		l.amounts = pricing.Line{}
		return
	}
	l.totals = measure.Recompute(l.rows)
	if l.product.RequiresMeasurements() {
		l.quantity = l.totals.BillableQuantity(l.desc.Basis)
	}
	l.amounts = pricing.PriceLine(l.quantity, l.unitPrice, l.discount, l.taxPct)
}

// State reports where the line is in its flow.
func (l *Line) State() State {
	switch {
	case l.product == nil:
		return StateNoProduct
	case l.sheet != nil:
		return StateMeasurementDialogOpen
	case l.product.NeedsCalculationType() && l.calcType == "":
		return StateAwaitingCalculationType
	case l.product.RequiresMeasurements() && !l.measured:
		return StateProductSelected
	case l.quantity <= 0 || l.unitPrice <= 0:
		return StateProductSelected
	}
	return StatePriced
}

// Product returns the selected product.
func (l *Line) Product() (catalog.Product, bool) {
	if l.product == nil {
		return catalog.Product{}, false
	}
	return *l.product, true
}

func (l *Line) CalculationType() catalog.CalculationType { return l.calcType }
func (l *Line) Quantity() float64                         { return l.quantity }
func (l *Line) UnitPrice() float64                        { return l.unitPrice }
func (l *Line) DiscountPercentage() float64               { return l.discount }
func (l *Line) TaxPercentage() float64                    { return l.taxPct }
func (l *Line) MeasurementTotals() measure.Totals         { return l.totals }
func (l *Line) Amounts() pricing.Line                     { return l.amounts }

// Weight is the line's total weight from its measurements.
func (l *Line) Weight() float64 { return l.totals.TotalWeight }

// Rows returns a copy of the saved measurement rows.
func (l *Line) Rows() []measure.Row {
	if len(l.rows) == 0 {
		return nil
	}
	out := make([]measure.Row, len(l.rows))
	copy(out, l.rows)
	return out
}
