// Package export renders a saved quotation or purchase for sharing: as an
// Excel workbook and as plain text.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/quotation"
)

// SummarySheet is the name of the first sheet of a workbook.
const SummarySheet = "Quotation"

type styles struct {
	title, header, cell, label, value int
}

// Workbook renders doc as xlsx bytes. The first sheet lists the header,
// lines and totals; every measured line gets its own sheet with its rows.
func Workbook(doc quotation.DocumentSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeSummary(f, st, doc); err != nil {
		return nil, err
	}
	for i, line := range doc.Lines {
		if len(line.Measurements) == 0 {
			continue
		}
		if err := writeMeasurements(f, st, i, line); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return st, fmt.Errorf("create title style: %w", err)
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create header style: %w", err)
	}
	if st.cell, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return st, fmt.Errorf("create cell style: %w", err)
	}
	st.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return st, fmt.Errorf("create label style: %w", err)
	}
	if st.value, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, NumFmt: 4}); err != nil {
		return st, fmt.Errorf("create value style: %w", err)
	}
	return st, nil
}

func writeSummary(f *excelize.File, st styles, doc quotation.DocumentSnapshot) error {
	sheet := SummarySheet
	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	widths := []float64{6, 36, 10, 10, 12, 12, 10, 14, 14}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	title := "Quotation"
	if doc.Kind == quotation.KindPurchase {
		title = "Purchase"
	}
	if err := f.MergeCell(sheet, "A1", "I1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", title+" "+doc.Reference)
	f.SetCellStyle(sheet, "A1", "I1", st.title)

	header := [][2]string{
		{"Customer", doc.CustomerName},
		{"Contact", doc.ContactNumber},
		{"Address", doc.Address},
		{"Date", doc.QuoteDate},
		{"Valid until", doc.ValidUntil},
		{"Status", doc.Status.Label()},
	}
	row := 2
	for _, kv := range header {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), kv[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), sanitizeExcelCell(kv[1]))
		row++
	}

	row++
	headers := []string{"#", "Product", "Type", "Calc", "Quantity", "Unit price", "Disc %", "Price", "Final price"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", columns[i], row), h)
	}
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), st.header)
	row++

	for i, line := range doc.Lines {
		values := []any{
			i + 1,
			sanitizeExcelCell(productLabel(line)),
			string(line.ProductType),
			string(line.CalculationType),
			line.Quantity,
			line.UnitPrice,
			line.DiscountPercentage,
			line.Price,
			line.FinalPrice,
		}
		for c, v := range values {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", columns[c], row), v)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), st.cell)
		row++
	}

	row++
	for _, total := range []struct {
		label string
		value float64
	}{
		{"Price:", doc.Totals.Price},
		{"Tax:", doc.Totals.Tax},
		{"Total:", doc.Totals.FinalPrice},
	} {
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), total.label)
		f.SetCellStyle(sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("H%d", row), st.label)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), total.value)
		f.SetCellStyle(sheet, fmt.Sprintf("I%d", row), fmt.Sprintf("I%d", row), st.value)
		row++
	}
	return nil
}

func writeMeasurements(f *excelize.File, st styles, index int, line quotation.LineSnapshot) error {
	sheet := fmt.Sprintf("Line %d", index+1)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	mm := line.CalculationType == catalog.CalculationMM
	headers := []string{"#", "Feet", "Inch", "Nos", "Running feet", "Sq feet", "Weight"}
	if mm {
		headers = []string{"#", "Length", "Width", "Nos", "Sq mm", "Sq feet", "Weight"}
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(productLabel(line)))
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	for i, h := range headers {
		f.SetCellValue(sheet, cellName(i, 3), h)
	}
	f.SetCellStyle(sheet, "A3", "G3", st.header)

	row := 4
	for i, r := range line.Measurements {
		values := []any{i + 1, deref(r.Feet), deref(r.Inch), derefInt(r.Nos), r.RunningFeet, r.SqFeet, r.Weight}
		if mm {
			values = []any{i + 1, deref(r.Length), deref(r.Width), derefInt(r.Nos), r.SqMM, r.SqFeet, r.Weight}
		}
		for c, v := range values {
			f.SetCellValue(sheet, cellName(c, row), v)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), st.cell)
		row++
	}

	if t := line.MeasurementTotals; t != nil {
		values := []any{"Total", t.TotalFeet, t.TotalInch, t.TotalNos, t.TotalRunningFeet, t.TotalSqFeet, t.TotalWeight}
		if mm {
			values = []any{"Total", t.TotalLength, t.TotalWidth, t.TotalNos, t.TotalSqMM, t.TotalSqFeet, t.TotalWeight}
		}
		for c, v := range values {
			f.SetCellValue(sheet, cellName(c, row), v)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), st.label)
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

func productLabel(line quotation.LineSnapshot) string {
	if strings.TrimSpace(line.ProductName) != "" {
		return line.ProductName
	}
	return fmt.Sprintf("Product %d", line.ProductID)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// sanitizeExcelCell prefixes cells Excel would read as a formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
