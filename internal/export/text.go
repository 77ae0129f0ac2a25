package export

import (
	"fmt"
	"strings"

	"github.com/Simplici0/coatworks/internal/quotation"
)

// Text renders doc as a plain-text summary suitable for a message.
func Text(doc quotation.DocumentSnapshot) string {
	var b strings.Builder

	title := "Quotation"
	if doc.Kind == quotation.KindPurchase {
		title = "Purchase"
	}
	fmt.Fprintf(&b, "%s %s\n", title, doc.Reference)
	fmt.Fprintf(&b, "Customer: %s\n", doc.CustomerName)
	if doc.ContactNumber != "" {
		fmt.Fprintf(&b, "Contact: %s\n", doc.ContactNumber)
	}
	if doc.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", doc.Address)
	}
	fmt.Fprintf(&b, "Date: %s\n", doc.QuoteDate)
	fmt.Fprintf(&b, "Valid until: %s\n", doc.ValidUntil)
	fmt.Fprintf(&b, "Status: %s\n", doc.Status.Label())

	b.WriteString("\nItems:\n")
	for i, line := range doc.Lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, productLabel(line))
		fmt.Fprintf(&b, "   Quantity: %s x %.2f", formatQuantity(line.Quantity), line.UnitPrice)
		if line.DiscountPercentage > 0 {
			fmt.Fprintf(&b, " (-%s%%)", formatQuantity(line.DiscountPercentage))
		}
		b.WriteString("\n")
		if t := line.MeasurementTotals; t != nil {
			fmt.Fprintf(&b, "   Measurements: %d rows, %.2f sq ft, %.2f kg\n", len(line.Measurements), t.TotalSqFeet, t.TotalWeight)
		}
		if line.TaxPercentage != nil {
			fmt.Fprintf(&b, "   Tax: %s%%\n", formatQuantity(*line.TaxPercentage))
		}
		fmt.Fprintf(&b, "   Amount: %.2f\n", line.FinalPrice)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Price: %.2f\n", doc.Totals.Price)
	fmt.Fprintf(&b, "Tax: %.2f\n", doc.Totals.Tax)
	fmt.Fprintf(&b, "Total: %.2f\n", doc.Totals.FinalPrice)

	if doc.Remarks != "" {
		fmt.Fprintf(&b, "\nRemarks: %s\n", doc.Remarks)
	}
	if doc.TermsConditions != "" {
		fmt.Fprintf(&b, "Terms: %s\n", doc.TermsConditions)
	}
	return b.String()
}

// formatQuantity drops the decimals of whole numbers.
func formatQuantity(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
