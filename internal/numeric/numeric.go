// Package numeric holds the rounding and summation rules shared by the
// measurement and pricing code. Values are carried as float64 and rounded
// through shopspring/decimal so 2-decimal results match what a cashier
// would write on an invoice.
package numeric

import (
	"math"

	"github.com/shopspring/decimal"
)

// Clean maps NaN and infinities to 0.
func Clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NonNegative cleans v and clamps negatives to 0.
func NonNegative(v float64) float64 {
	v = Clean(v)
	if v < 0 {
		return 0
	}
	return v
}

// Value dereferences p, treating nil as 0.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return NonNegative(*p)
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(Clean(v)).Round(places).InexactFloat64()
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return Round(v, 2)
}

// Sum adds values in decimal arithmetic so that sums of already rounded
// values do not pick up binary noise (0.1+0.2 stays 0.3).
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(Clean(v)))
	}
	return total.InexactFloat64()
}
