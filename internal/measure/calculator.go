// Package measure turns raw piece measurements into running feet, square
// feet and weight, and sums a line's measurement table.
package measure

import (
	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/numeric"
)

const (
	// SqFeetPerRunningFoot is the fixed profile width factor of the SF
	// product family.
	SqFeetPerRunningFoot = 3.5

	// MMPerFoot is one foot in millimetres.
	MMPerFoot = 304.8

	// SqMMPerSqFoot is 304.8², one square foot in square millimetres.
	SqMMPerSqFoot = MMPerFoot * MMPerFoot
)

// Mode is the shape of a measurement row.
type Mode int

const (
	// ModeSF rows hold feet, inch and a piece count.
	ModeSF Mode = iota + 1
	// ModeMM rows hold length and width in millimetres and a piece count.
	ModeMM
	// ModeNOS rows hold feet and inch; running feet scale with the line quantity.
	ModeNOS
)

func (m Mode) String() string {
	switch m {
	case ModeSF:
		return "SF"
	case ModeMM:
		return "MM"
	case ModeNOS:
		return "NOS"
	}
	return "unknown"
}

// ModeFor maps a product variant to its row mode.
func ModeFor(k catalog.Kind) Mode {
	switch k {
	case catalog.KindRegularMM:
		return ModeMM
	case catalog.KindNos:
		return ModeNOS
	default:
		return ModeSF
	}
}

// Descriptor is what the calculator needs to know about a product.
type Descriptor struct {
	Mode   Mode
	Weight float64
	Basis  catalog.PricingBasis
}

// DescriptorFor resolves the descriptor for product p measured with ct.
func DescriptorFor(p catalog.Product, ct catalog.CalculationType) (Descriptor, error) {
	kind, err := p.Kind(ct)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Mode: ModeFor(kind), Weight: p.UnitWeight(), Basis: p.Basis()}, nil
}

// Input is what the user types into a row. Nil means the field is empty.
type Input struct {
	Feet   *float64 `json:"feet,omitempty"`
	Inch   *float64 `json:"inch,omitempty"`
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Nos    *int     `json:"nos,omitempty"`
}

// Derived holds the read-only values computed from an Input, rounded to 2
// decimals.
type Derived struct {
	RunningFeet float64 `json:"runningFeet"`
	SqMM        float64 `json:"sqMM,omitempty"`
	SqFeet      float64 `json:"sqFeet"`
	Weight      float64 `json:"weight"`
}

// Row is one measured piece.
type Row struct {
	Input
	Derived
}

// Calculate computes the derived values of one row. It never fails: empty
// or invalid numbers count as 0, and an empty piece count as 1.
// lineQuantity is only read in ModeNOS.
func Calculate(d Descriptor, in Input, lineQuantity float64) Derived {
	weight := numeric.NonNegative(d.Weight)

	switch d.Mode {
	case ModeMM:
		sqMM := numeric.Value(in.Length) * numeric.Value(in.Width) * count(in.Nos)
		sqFeet := MMToSqFeet(sqMM)
		return Derived{
			SqMM:   numeric.Round2(sqMM),
			SqFeet: numeric.Round2(sqFeet),
			Weight: numeric.Round2(sqFeet * weight),
		}
	case ModeNOS:
		multiplier := numeric.NonNegative(lineQuantity)
		if multiplier == 0 {
			multiplier = 1
		}
		return linear(in, multiplier, weight)
	default:
		return linear(in, count(in.Nos), weight)
	}
}

func linear(in Input, multiplier, weight float64) Derived {
	runningFeet := RunningFeet(numeric.Value(in.Feet), numeric.Value(in.Inch), multiplier)
	return Derived{
		RunningFeet: numeric.Round2(runningFeet),
		SqFeet:      numeric.Round2(runningFeet * SqFeetPerRunningFoot),
		Weight:      numeric.Round2(runningFeet * weight),
	}
}

// RunningFeet converts feet and inches to decimal feet and scales by n.
func RunningFeet(feet, inch, n float64) float64 {
	totalInches := feet*12 + inch
	return (totalInches / 12) * n
}

// MMToSqFeet converts square millimetres to square feet.
func MMToSqFeet(sqMM float64) float64 {
	return sqMM / SqMMPerSqFoot
}

// SqFeetToMM converts square feet to square millimetres.
func SqFeetToMM(sqFeet float64) float64 {
	return sqFeet * SqMMPerSqFoot
}

func count(n *int) float64 {
	if n == nil {
		return 1
	}
	if *n < 0 {
		return 0
	}
	return float64(*n)
}

// Compute fills r.Derived from r.Input and returns r.
func (r Row) Compute(d Descriptor, lineQuantity float64) Row {
	r.Derived = Calculate(d, r.Input, lineQuantity)
	return r
}

// Float returns a pointer to v, for building Input values.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Input values.
func Int(v int) *int { return &v }
