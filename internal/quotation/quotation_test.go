package quotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/measure"
)

var (
	nosProduct = catalog.Product{
		ID: 1, Name: "Handle", MainType: catalog.MainTypeNos,
		SaleAmount: 50, TaxPercentage: 18,
	}
	regularProduct = catalog.Product{
		ID: 2, Name: "Section 40x40", MainType: catalog.MainTypeRegular, Weight: 0.5,
		SaleAmount: 120, TaxPercentage: 18,
	}
	polyProduct = catalog.Product{
		ID: 3, Name: "Poly sheet", MainType: catalog.MainTypePolyCarbonate, Weight: 1,
		SaleAmount: 80,
	}
	weightProduct = catalog.Product{
		ID: 4, Name: "Coated bar", MainType: catalog.MainTypeRegular, SubType: catalog.CalculationMM,
		Weight: 2, SaleAmount: 300, TaxPercentage: 12, PricingBasis: catalog.PricingByWeight,
	}
)

type fakeProducts map[int64]catalog.Product

func (f fakeProducts) Get(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := f[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func measureSF(t *testing.T, l *Line, feet, inch float64, nos int) {
	t.Helper()
	sheet, err := l.OpenMeasurements()
	require.NoError(t, err)
	require.NoError(t, sheet.UpdateRow(0, measure.Input{Feet: measure.Float(feet), Inch: measure.Float(inch), Nos: measure.Int(nos)}))
	require.NoError(t, l.ConfirmMeasurements())
}

func TestLineNosFlow(t *testing.T) {
	l := NewLine(18)
	assert.Equal(t, StateNoProduct, l.State())

	require.NoError(t, l.SelectProduct(nosProduct))
	assert.Equal(t, StatePriced, l.State())
	assert.Equal(t, 1.0, l.Quantity())

	require.NoError(t, l.SetQuantity(10))
	a := l.Amounts()
	assert.Equal(t, 500.0, a.Price)
	assert.Equal(t, 90.0, a.Tax)
	assert.Equal(t, 590.0, a.FinalPrice)
}

func TestLineRegularFlow(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(regularProduct))
	assert.Equal(t, StateAwaitingCalculationType, l.State())

	_, err := l.OpenMeasurements()
	assert.ErrorIs(t, err, catalog.ErrCalculationTypeRequired)

	require.NoError(t, l.ChooseCalculationType(catalog.CalculationSqFeet))
	assert.Equal(t, StateProductSelected, l.State())

	sheet, err := l.OpenMeasurements()
	require.NoError(t, err)
	assert.Equal(t, StateMeasurementDialogOpen, l.State())
	require.NoError(t, sheet.UpdateRow(0, measure.Input{Feet: measure.Float(10), Inch: measure.Float(6), Nos: measure.Int(2)}))

	require.NoError(t, l.ConfirmMeasurements())
	assert.Equal(t, StatePriced, l.State())
	// 21 running feet * 3.5 = 73.5 sq ft, billed as 74
	assert.Equal(t, 73.5, l.MeasurementTotals().TotalSqFeet)
	assert.Equal(t, 74.0, l.Quantity())
	assert.Equal(t, 10.5, l.Weight())
	assert.Equal(t, 8880.0, l.Amounts().Price)
	assert.Equal(t, 10478.4, l.Amounts().FinalPrice)
}

func TestLineQuantityIsDerivedForMeasuredProducts(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(polyProduct))
	assert.ErrorIs(t, l.SetQuantity(5), ErrQuantityFromMeasurements)
	assert.ErrorIs(t, l.ChooseCalculationType(catalog.CalculationMM), catalog.ErrCalculationTypeForbidden)
}

func TestLineCancelKeepsSavedTable(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(polyProduct))
	measureSF(t, l, 4, 0, 1)
	before := l.Rows()

	sheet, err := l.OpenMeasurements()
	require.NoError(t, err)
	require.NoError(t, sheet.UpdateRow(0, measure.Input{Feet: measure.Float(40), Inch: measure.Float(0), Nos: measure.Int(1)}))
	sheet.AddRow()
	l.CancelMeasurements()

	assert.Equal(t, before, l.Rows())
	assert.Equal(t, 14.0, l.Quantity())
	assert.Equal(t, StatePriced, l.State())
}

func TestLineChangingProductClearsTable(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(regularProduct))
	require.NoError(t, l.ChooseCalculationType(catalog.CalculationSqFeet))
	measureSF(t, l, 10, 0, 1)
	require.NotEmpty(t, l.Rows())

	require.NoError(t, l.SelectProduct(polyProduct))

	assert.Empty(t, l.Rows())
	assert.Equal(t, measure.Totals{}, l.MeasurementTotals())
	assert.Zero(t, l.Quantity())
	assert.Equal(t, catalog.CalculationSqFeet, l.CalculationType())
	assert.Equal(t, 80.0, l.UnitPrice())
	assert.Equal(t, 18.0, l.TaxPercentage())
	assert.Equal(t, StateProductSelected, l.State())
}

func TestLineChangingCalculationTypeClearsTable(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(regularProduct))
	require.NoError(t, l.ChooseCalculationType(catalog.CalculationSqFeet))
	measureSF(t, l, 10, 0, 1)

	require.NoError(t, l.ChooseCalculationType(catalog.CalculationMM))

	assert.Empty(t, l.Rows())
	assert.Zero(t, l.Amounts().FinalPrice)
}

func TestLineNosMeasurementsScaleWithQuantity(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(nosProduct))
	require.NoError(t, l.SetQuantity(2))
	measureSF(t, l, 3, 0, 1)
	assert.Equal(t, 6.0, l.MeasurementTotals().TotalRunningFeet)

	require.NoError(t, l.SetQuantity(5))
	assert.Equal(t, 15.0, l.MeasurementTotals().TotalRunningFeet)
	assert.Equal(t, 5.0, l.Quantity())
}

func TestLineWeightPricedBillsByWeight(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(weightProduct))
	require.NoError(t, l.ChooseCalculationType(catalog.CalculationMM))

	res := measure.Result{Mode: measure.ModeMM, Rows: []measure.Row{
		{Input: measure.Input{Length: measure.Float(1000), Width: measure.Float(500), Nos: measure.Int(2)}},
	}}
	require.NoError(t, l.ApplyMeasurements(res))

	assert.Equal(t, 21.53, l.Quantity())
	assert.Equal(t, 12.0, l.TaxPercentage())
	assert.InDelta(t, 6459.0, l.Amounts().Price, 1e-9)

	err := l.ApplyMeasurements(measure.Result{Mode: measure.ModeSF})
	assert.ErrorIs(t, err, ErrModeMismatch)
}

func TestLineDefaultTax(t *testing.T) {
	l := NewLine(7)
	require.NoError(t, l.SelectProduct(catalog.Product{ID: 9, MainType: catalog.MainTypeNos, SaleAmount: 100}))
	assert.Equal(t, 7.0, l.TaxPercentage())
	assert.Equal(t, 107.0, l.Amounts().FinalPrice)
}

func TestDocumentTotalsAddAndRemove(t *testing.T) {
	d := New(KindQuotation, 18)

	prices := []float64{50, 25, 10}
	for _, p := range prices {
		l := d.AddLine()
		require.NoError(t, l.SelectProduct(nosProduct))
		l.SetUnitPrice(p)
		require.NoError(t, l.SetQuantity(2))
	}

	totals := d.Totals()
	assert.Equal(t, 170.0, totals.Price)
	assert.Equal(t, 30.6, totals.Tax)
	assert.Equal(t, 200.6, totals.FinalPrice)

	require.NoError(t, d.RemoveLine(1))
	totals = d.Totals()
	assert.Equal(t, 120.0, totals.Price)
	assert.Equal(t, 141.6, totals.FinalPrice)

	assert.ErrorIs(t, d.RemoveLine(5), ErrLineIndex)
}

func validDocument(t *testing.T) *Document {
	t.Helper()
	d := New(KindQuotation, 18)
	d.CustomerName = "Acme Glazing"
	d.ContactNumber = "9800000000"
	d.Address = "12 Mill Road"
	d.QuoteDate = "2024-03-01"
	d.ValidUntil = "2024-03-31"
	l := d.AddLine()
	require.NoError(t, l.SelectProduct(nosProduct))
	return d
}

func TestDocumentValidate(t *testing.T) {
	d := validDocument(t)
	require.NoError(t, d.Validate())

	d.ValidUntil = "2024-02-01"
	d.CustomerName = ""
	l := d.AddLine()
	require.NoError(t, l.SelectProduct(regularProduct))
	l.SetDiscountPercentage(150)
	l.SetUnitPrice(0)
	d.AddLine()

	err := d.Validate()
	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)

	assert.Equal(t, "is required", errs["customerName"])
	assert.Equal(t, "must not be before quoteDate", errs["validUntil"])
	assert.Equal(t, "is required", errs["items[1].calculationType"])
	assert.Equal(t, "must be at most 100", errs["items[1].discountPercentage"])
	assert.Equal(t, "must be at least 0.01", errs["items[1].unitPrice"])
	assert.Equal(t, "is required", errs["items[2].productId"])
	assert.NotContains(t, errs, "items[1].quantity")
	assert.NotContains(t, errs, "items[0].productId")
}

func TestDocumentValidateRequiresLinesAndMeasurements(t *testing.T) {
	d := New(KindPurchase, 18)
	d.CustomerName = "Supplier"
	d.ContactNumber = "1"
	d.Address = "x"
	d.QuoteDate = "2024-03-01"
	d.ValidUntil = "not a date"

	errs := d.Validate().(ValidationErrors)
	assert.Equal(t, "must contain at least one line", errs["items"])
	assert.Equal(t, "must be a date in 2006-01-02 format", errs["validUntil"])

	l := d.AddLine()
	require.NoError(t, l.SelectProduct(polyProduct))
	d.ValidUntil = "2024-03-01"
	errs = d.Validate().(ValidationErrors)
	assert.Equal(t, "is required", errs["items[0].measurements"])

	_, err := l.OpenMeasurements()
	require.NoError(t, err)
	errs = d.Validate().(ValidationErrors)
	assert.Equal(t, "has an unconfirmed calculation", errs["items[0].measurements"])
}

func TestFromSnapshotRecomputes(t *testing.T) {
	products := fakeProducts{1: nosProduct, 2: regularProduct}
	snap := DocumentSnapshot{
		Header: Header{
			Kind: KindQuotation, CustomerName: "Acme", ContactNumber: "1", Address: "x",
			QuoteDate: "2024-01-01", ValidUntil: "2024-01-15",
		},
		Lines: []LineSnapshot{
			{ProductID: 1, Quantity: 10, UnitPrice: 50, FinalPrice: 1},
			{
				ProductID: 2, CalculationType: catalog.CalculationSqFeet, UnitPrice: 120, DiscountPercentage: 10,
				Measurements: []measure.Row{{
					Input:   measure.Input{Feet: measure.Float(10), Inch: measure.Float(6), Nos: measure.Int(2)},
					Derived: measure.Derived{RunningFeet: 1},
				}},
			},
		},
	}

	d, err := FromSnapshot(context.Background(), snap, products, 18)
	require.NoError(t, err)
	require.NoError(t, d.Validate())
	assert.Equal(t, StatusQuote, d.Status)

	out := d.Snapshot()
	require.Len(t, out.Lines, 2)
	assert.Equal(t, 590.0, out.Lines[0].FinalPrice)
	assert.Equal(t, "Handle", out.Lines[0].ProductName)
	assert.Equal(t, 74.0, out.Lines[1].Quantity)
	assert.Equal(t, 21.0, out.Lines[1].Measurements[0].RunningFeet)
	require.NotNil(t, out.Lines[1].MeasurementTotals)
	assert.Equal(t, 73.5, out.Lines[1].MeasurementTotals.TotalSqFeet)
	assert.Equal(t, 7992.0, out.Lines[1].Price)
	assert.Equal(t, 10020.56, out.Totals.FinalPrice)
}

func TestFromSnapshotUnknownProduct(t *testing.T) {
	snap := DocumentSnapshot{Lines: []LineSnapshot{{ProductID: 42}}}

	_, err := FromSnapshot(context.Background(), snap, fakeProducts{}, 18)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)

	s, err = ParseStatus("c")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)
	assert.Equal(t, "Completed", s.Label())

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestFromSnapshotKeepsZeroTax(t *testing.T) {
	products := fakeProducts{1: nosProduct}
	d := New(KindQuotation, 18)
	l := d.AddLine()
	require.NoError(t, l.SelectProduct(nosProduct))
	require.NoError(t, l.SetQuantity(10))
	l.SetTaxPercentage(0)

	restored, err := FromSnapshot(context.Background(), d.Snapshot(), products, 18)
	require.NoError(t, err)
	line, err := restored.Line(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, line.TaxPercentage())
	assert.Equal(t, 500.0, line.Amounts().FinalPrice)

	// without a tax the product's tax applies
	snap := DocumentSnapshot{Lines: []LineSnapshot{{ProductID: 1, Quantity: 10, UnitPrice: 50}}}
	restored, err = FromSnapshot(context.Background(), snap, products, 5)
	require.NoError(t, err)
	line, err = restored.Line(0)
	require.NoError(t, err)
	assert.Equal(t, 18.0, line.TaxPercentage())
	assert.Equal(t, 590.0, line.Amounts().FinalPrice)
}

func TestRestoreMeasurementsRejectsForbiddenCalculationType(t *testing.T) {
	l := NewLine(18)
	require.NoError(t, l.SelectProduct(polyProduct))
	assert.ErrorIs(t, l.RestoreMeasurements(catalog.CalculationMM, nil), catalog.ErrCalculationTypeForbidden)

	snap := DocumentSnapshot{Lines: []LineSnapshot{{ProductID: 1, Quantity: 1, CalculationType: catalog.CalculationSqFeet}}}
	_, err := FromSnapshot(context.Background(), snap, fakeProducts{1: nosProduct}, 18)
	assert.ErrorIs(t, err, catalog.ErrCalculationTypeForbidden)
}

func TestFromSnapshotRejectsInactiveProduct(t *testing.T) {
	retired := nosProduct
	retired.Status = catalog.StatusInactive
	snap := DocumentSnapshot{Lines: []LineSnapshot{{ProductID: 1, Quantity: 1}}}

	_, err := FromSnapshot(context.Background(), snap, fakeProducts{1: retired}, 18)
	assert.ErrorIs(t, err, catalog.ErrInactive)
	assert.Contains(t, err.Error(), "items[0]")
}
