package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// MainType is how a product is sold: by piece count or by measured size.
type MainType string

const (
	MainTypeNos           MainType = "NOS"
	MainTypeRegular       MainType = "REGULAR"
	MainTypePolyCarbonate MainType = "POLY_CARBONATE"
)

// CalculationType is the measurement mode of a dimension-priced product.
// SQ_FEET rows are entered in feet and inches, MM rows in millimetres.
type CalculationType string

const (
	CalculationSqFeet CalculationType = "SQ_FEET"
	CalculationMM     CalculationType = "MM"
)

// PricingBasis selects which aggregate a measured line is billed by.
type PricingBasis string

const (
	PricingByArea   PricingBasis = "AREA"
	PricingByWeight PricingBasis = "WEIGHT"
)

const (
	StatusActive   = "A"
	StatusInactive = "I"
)

var (
	ErrUnknownMainType          = errors.New("unknown product type")
	ErrUnknownCalculationType   = errors.New("unknown calculation type")
	ErrCalculationTypeRequired  = errors.New("calculation type is required for regular products")
	ErrCalculationTypeForbidden = errors.New("calculation type only applies to regular products")
	ErrInactive                 = errors.New("product is inactive")
)

// normalize folds the spellings seen in catalog data ("Poly Carbonate",
// "poly-carbonate", "POLY_CARBONATE") into one key.
func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ParseMainType accepts any casing of the catalog type names.
func ParseMainType(s string) (MainType, error) {
	switch normalize(s) {
	case "NOS":
		return MainTypeNos, nil
	case "REGULAR":
		return MainTypeRegular, nil
	case "POLY_CARBONATE", "POLYCARBONATE":
		return MainTypePolyCarbonate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMainType, s)
}

// UnmarshalText lets JSON payloads use any accepted spelling.
func (m *MainType) UnmarshalText(b []byte) error {
	parsed, err := ParseMainType(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseCalculationType accepts SQ_FEET/SF and MM in any casing. An empty
// string parses to the empty calculation type.
func ParseCalculationType(s string) (CalculationType, error) {
	switch normalize(s) {
	case "":
		return "", nil
	case "SQ_FEET", "SF", "SQFEET", "SQ_FT":
		return CalculationSqFeet, nil
	case "MM":
		return CalculationMM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCalculationType, s)
}

// UnmarshalText lets JSON payloads use any accepted spelling.
func (c *CalculationType) UnmarshalText(b []byte) error {
	parsed, err := ParseCalculationType(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Kind is the closed set of product variants the calculator dispatches on.
type Kind int

const (
	KindNos Kind = iota + 1
	KindRegularSF
	KindRegularMM
	KindPolyCarbonate
)

func (k Kind) String() string {
	switch k {
	case KindNos:
		return "nos"
	case KindRegularSF:
		return "regular_sf"
	case KindRegularMM:
		return "regular_mm"
	case KindPolyCarbonate:
		return "poly_carbonate"
	}
	return "unknown"
}

// Product is a read-only catalog entry.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Weight        float64         `json:"weight"`
	MainType      MainType        `json:"type"`
	SubType       CalculationType `json:"subType,omitempty"`
	SaleAmount    float64         `json:"sale_amount"`
	TaxPercentage float64         `json:"tax_percentage"`
	PricingBasis  PricingBasis    `json:"pricing_basis,omitempty"`
	Status        string          `json:"status"`
}

// Active reports whether the product can be put on a new line. An empty
// status counts as active.
func (p Product) Active() bool {
	return p.Status != StatusInactive
}

// UnitWeight is the weight factor used by the calculator; absent or
// negative weights count as 0.
func (p Product) UnitWeight() float64 {
	if p.Weight < 0 {
		return 0
	}
	return p.Weight
}

// Basis defaults to area pricing.
func (p Product) Basis() PricingBasis {
	if p.PricingBasis == PricingByWeight {
		return PricingByWeight
	}
	return PricingByArea
}

// RequiresMeasurements reports whether the line quantity comes from a
// measurement table instead of being typed in.
func (p Product) RequiresMeasurements() bool {
	return p.MainType == MainTypeRegular || p.MainType == MainTypePolyCarbonate
}

// NeedsCalculationType reports whether the user has to pick SQ_FEET or MM.
func (p Product) NeedsCalculationType() bool {
	return p.MainType == MainTypeRegular
}

// Kind resolves the variant for a line. For regular products ct wins over
// the catalog sub type; other products reject an explicit ct.
func (p Product) Kind(ct CalculationType) (Kind, error) {
	switch p.MainType {
	case MainTypeNos:
		if ct != "" {
			return 0, ErrCalculationTypeForbidden
		}
		return KindNos, nil
	case MainTypePolyCarbonate:
		if ct != "" && ct != CalculationSqFeet {
			return 0, ErrCalculationTypeForbidden
		}
		return KindPolyCarbonate, nil
	case MainTypeRegular:
		if ct == "" {
			ct = p.SubType
		}
		switch ct {
		case CalculationSqFeet:
			return KindRegularSF, nil
		case CalculationMM:
			return KindRegularMM, nil
		}
		return 0, ErrCalculationTypeRequired
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMainType, p.MainType)
}
