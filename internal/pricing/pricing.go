// Package pricing turns a line's quantity, unit price, discount and tax into
// its price, and sums priced lines into document totals.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/coatworks/internal/numeric"
)

// Line contains the intermediate and final values of one priced line.
// Price and Tax are kept unrounded; FinalPrice is rounded to 2 decimals.
type Line struct {
	BasePrice      float64 `json:"basePrice"`
	DiscountAmount float64 `json:"discountAmount"`
	Price          float64 `json:"price"`
	Tax            float64 `json:"tax"`
	FinalPrice     float64 `json:"finalPrice"`
}

// LineAmounts is the stored part of a priced line that document totals read.
type LineAmounts struct {
	Price         float64 `json:"price"`
	TaxPercentage float64 `json:"taxPercentage"`
	FinalPrice    float64 `json:"finalPrice"`
}

// Totals contains roll-up values across a document's lines.
type Totals struct {
	Price      float64 `json:"price"`
	Tax        float64 `json:"tax"`
	FinalPrice float64 `json:"finalPrice"`
}

// PriceLine computes base, discount, tax and final price. It never fails:
// NaN, infinite and negative inputs count as 0, as does a discount above 100.
func PriceLine(quantity, unitPrice, discountPct, taxPct float64) Line {
	quantity = numeric.NonNegative(quantity)
	unitPrice = numeric.NonNegative(unitPrice)
	discountPct = Discount(discountPct)
	taxPct = numeric.NonNegative(taxPct)

	basePrice := quantity * unitPrice
	discountAmount := basePrice * (discountPct / 100.0)
	afterDiscount := basePrice - discountAmount
	tax := afterDiscount * (taxPct / 100.0)

	return Line{
		BasePrice:      basePrice,
		DiscountAmount: discountAmount,
		Price:          afterDiscount,
		Tax:            tax,
		FinalPrice:     numeric.Round2(afterDiscount + tax),
	}
}

// Discount sanitizes a discount percentage; values outside 0..100 are 0.
func Discount(pct float64) float64 {
	pct = numeric.Clean(pct)
	if pct < 0 || pct > 100 {
		return 0
	}
	return pct
}

// DocumentTotals sums lines. Tax is re-derived from each stored price and
// tax percentage. Each sum is rounded once, after adding every line.
func DocumentTotals(lines []LineAmounts) Totals {
	price, tax, final := decimal.Zero, decimal.Zero, decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, l := range lines {
		p := decimal.NewFromFloat(numeric.Clean(l.Price))
		pct := decimal.NewFromFloat(numeric.NonNegative(l.TaxPercentage))
		price = price.Add(p)
		tax = tax.Add(p.Mul(pct).Div(hundred))
		final = final.Add(decimal.NewFromFloat(numeric.Clean(l.FinalPrice)))
	}

	return Totals{
		Price:      price.Round(2).InexactFloat64(),
		Tax:        tax.Round(2).InexactFloat64(),
		FinalPrice: final.Round(2).InexactFloat64(),
	}
}
