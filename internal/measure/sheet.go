package measure

import (
	"errors"
	"fmt"
)

var (
	ErrRowIndex   = errors.New("measurement row index out of range")
	ErrLastRow    = errors.New("a measurement table keeps at least one row")
	ErrEmptySheet = errors.New("measurement table is empty")
)

// Sheet is the working copy edited in the calculation dialog. Edits never
// touch the line that opened it; the line only changes when the caller
// hands the Result of Confirm back.
type Sheet struct {
	desc         Descriptor
	lineQuantity float64
	rows         []Row
}

// Result is what a confirmed sheet hands back to its line.
type Result struct {
	Mode   Mode   `json:"mode"`
	Totals Totals `json:"totals"`
	Rows   []Row  `json:"calculations"`
}

// NewSheet opens a sheet seeded with saved rows, or with one blank row when
// nothing was saved. Saved derived values are recomputed from their inputs.
func NewSheet(d Descriptor, lineQuantity float64, saved []Row) *Sheet {
	s := &Sheet{desc: d, lineQuantity: lineQuantity}
	for _, r := range saved {
		s.rows = append(s.rows, r.Compute(d, lineQuantity))
	}
	if len(s.rows) == 0 {
		s.AddRow()
	}
	return s
}

// Descriptor returns the product descriptor the sheet computes with.
func (s *Sheet) Descriptor() Descriptor { return s.desc }

// AddRow appends a blank row and returns its index. Blank rows start at
// zero size and one piece.
func (s *Sheet) AddRow() int {
	in := Input{Nos: Int(1)}
	if s.desc.Mode == ModeMM {
		in.Length, in.Width = Float(0), Float(0)
	} else {
		in.Feet, in.Inch = Float(0), Float(0)
	}
	s.rows = append(s.rows, Row{Input: in}.Compute(s.desc, s.lineQuantity))
	return len(s.rows) - 1
}

// RemoveRow deletes row i. The last remaining row cannot be removed.
func (s *Sheet) RemoveRow(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	if len(s.rows) == 1 {
		return ErrLastRow
	}
	s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
	return nil
}

// UpdateRow replaces the input of row i and recomputes that row only.
func (s *Sheet) UpdateRow(i int, in Input) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, i)
	}
	s.rows[i] = Row{Input: in}.Compute(s.desc, s.lineQuantity)
	return nil
}

// Rows returns a copy of the current rows.
func (s *Sheet) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len is the number of rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Totals sums the current rows.
func (s *Sheet) Totals() Totals { return Recompute(s.rows) }

// Validate reports row field errors, or nil.
func (s *Sheet) Validate() error {
	if len(s.rows) == 0 {
		return ErrEmptySheet
	}
	if errs := ValidateRows(s.desc.Mode, s.rows); errs != nil {
		return errs
	}
	return nil
}

// Confirm returns the sheet's rows and totals when every row is valid.
func (s *Sheet) Confirm() (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	rows := s.Rows()
	return Result{Mode: s.desc.Mode, Totals: Recompute(rows), Rows: rows}, nil
}
