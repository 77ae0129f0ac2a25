package measure

import (
	"math"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/numeric"
)

// Totals is the element-wise sum of a measurement table.
type Totals struct {
	TotalFeet        float64 `json:"totalFeet"`
	TotalInch        float64 `json:"totalInch"`
	TotalLength      float64 `json:"totalLength"`
	TotalWidth       float64 `json:"totalWidth"`
	TotalNos         int     `json:"totalNos"`
	TotalRunningFeet float64 `json:"totalRunningFeet"`
	TotalSqMM        float64 `json:"totalSqMM"`
	TotalSqFeet      float64 `json:"totalSqFeet"`
	TotalWeight      float64 `json:"totalWeight"`
}

// Recompute sums rows. Derived values are summed as stored on each row
// (already rounded), so totals match what the table shows. Recompute does
// not modify rows and returns the same Totals for the same input.
func Recompute(rows []Row) Totals {
	var (
		feet, inch, length, width []float64
		running, sqMM, sqFeet     []float64
		weight                    []float64
		t                         Totals
	)
	for _, r := range rows {
		feet = append(feet, numeric.Value(r.Feet))
		inch = append(inch, numeric.Value(r.Inch))
		length = append(length, numeric.Value(r.Length))
		width = append(width, numeric.Value(r.Width))
		if r.Nos != nil && *r.Nos > 0 {
			t.TotalNos += *r.Nos
		}
		running = append(running, r.RunningFeet)
		sqMM = append(sqMM, r.SqMM)
		sqFeet = append(sqFeet, r.SqFeet)
		weight = append(weight, r.Weight)
	}

	t.TotalFeet = numeric.Sum(feet...)
	t.TotalInch = numeric.Sum(inch...)
	t.TotalLength = numeric.Sum(length...)
	t.TotalWidth = numeric.Sum(width...)
	t.TotalRunningFeet = numeric.Sum(running...)
	t.TotalSqMM = numeric.Sum(sqMM...)
	t.TotalSqFeet = numeric.Sum(sqFeet...)
	t.TotalWeight = numeric.Sum(weight...)
	return t
}

// BillableQuantity is the line quantity the table produces. Area-priced
// lines are billed in whole square feet; weight-priced lines by the
// unrounded total weight.
func (t Totals) BillableQuantity(basis catalog.PricingBasis) float64 {
	if basis == catalog.PricingByWeight {
		return t.TotalWeight
	}
	return math.Round(t.TotalSqFeet)
}
