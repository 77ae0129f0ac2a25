package measure

import (
	"fmt"

	"github.com/Simplici0/coatworks/internal/validation"
)

type linearRules struct {
	Feet *float64 `json:"feet" validate:"required,gte=0"`
	Inch *float64 `json:"inch" validate:"required,gte=0"`
	Nos  *int     `json:"nos" validate:"required,gte=1"`
}

type mmRules struct {
	Length *float64 `json:"length" validate:"required,gte=0"`
	Width  *float64 `json:"width" validate:"required,gte=0"`
	Nos    *int     `json:"nos" validate:"required,gte=1"`
}

// ValidateRow checks the fields the mode uses. Every number is required and
// non-negative, and the piece count is at least 1.
func ValidateRow(mode Mode, in Input) validation.FieldErrors {
	if mode == ModeMM {
		return validation.Struct(mmRules{Length: in.Length, Width: in.Width, Nos: in.Nos})
	}
	return validation.Struct(linearRules{Feet: in.Feet, Inch: in.Inch, Nos: in.Nos})
}

// ValidateRows validates every row. Keys are prefixed with the row index,
// for example "[2].nos". A nil result means the table can be saved.
func ValidateRows(mode Mode, rows []Row) validation.FieldErrors {
	out := validation.FieldErrors{}
	for i, r := range rows {
		if errs := ValidateRow(mode, r.Input); errs != nil {
			for k, v := range errs {
				out[fmt.Sprintf("[%d].%s", i, k)] = v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
