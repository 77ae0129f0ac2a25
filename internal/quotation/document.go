package quotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/measure"
	"github.com/Simplici0/coatworks/internal/pricing"
	"github.com/Simplici0/coatworks/internal/validation"
)

// DateLayout is the format of quote and validity dates.
const DateLayout = "2006-01-02"

var ErrLineIndex = errors.New("line index out of range")

// Kind separates quotations from purchases. Both share the same model.
type Kind string

const (
	KindQuotation Kind = "QUOTATION"
	KindPurchase  Kind = "PURCHASE"
)

// ParseKind accepts either kind name in any casing.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindQuotation:
		return KindQuotation, nil
	case KindPurchase:
		return KindPurchase, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Status is the document's lifecycle code.
type Status string

const (
	StatusQuote      Status = "Q"
	StatusAccepted   Status = "A"
	StatusDeclined   Status = "D"
	StatusReady      Status = "R"
	StatusProcessing Status = "P"
	StatusCompleted  Status = "C"
)

var statusLabels = map[Status]string{
	StatusQuote:      "Quote",
	StatusAccepted:   "Accepted",
	StatusDeclined:   "Declined",
	StatusReady:      "Ready",
	StatusProcessing: "Processing",
	StatusCompleted:  "Completed",
}

// ParseStatus accepts a status code ("A") or its label ("Accepted").
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if _, ok := statusLabels[Status(strings.ToUpper(s))]; ok {
		return Status(strings.ToUpper(s)), nil
	}
	for code, label := range statusLabels {
		if strings.EqualFold(label, s) {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Label is the human name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ValidationErrors lists submit-time problems keyed by field path, for
// example "items[1].unitPrice".
type ValidationErrors = validation.FieldErrors

// Header is everything on a document except its lines.
type Header struct {
	Kind            Kind   `json:"kind" validate:"required,oneof=QUOTATION PURCHASE"`
	CustomerID      *int64 `json:"customerId,omitempty"`
	CustomerName    string `json:"customerName" validate:"required"`
	ContactNumber   string `json:"contactNumber" validate:"required"`
	Address         string `json:"address" validate:"required"`
	QuoteDate       string `json:"quoteDate" validate:"required,datetime=2006-01-02"`
	ValidUntil      string `json:"validUntil" validate:"required,datetime=2006-01-02"`
	Remarks         string `json:"remarks,omitempty"`
	TermsConditions string `json:"termsConditions,omitempty"`
	Status          Status `json:"status,omitempty" validate:"omitempty,oneof=Q A D R P C"`
}

// Document is an editable quotation or purchase.
type Document struct {
	Header

	ID        int64
	Reference string

	defaultTax float64
	lines      []*Line
}

// New returns an empty document of the given kind with status Quote.
func New(kind Kind, defaultTax float64) *Document {
	return &Document{
		Header:     Header{Kind: kind, Status: StatusQuote},
		defaultTax: defaultTax,
	}
}

// AddLine appends an empty line and returns it.
func (d *Document) AddLine() *Line {
	l := NewLine(d.defaultTax)
	d.lines = append(d.lines, l)
	return l
}

// Line returns line i.
func (d *Document) Line(i int) (*Line, error) {
	if i < 0 || i >= len(d.lines) {
		return nil, fmt.Errorf("%w: %d", ErrLineIndex, i)
	}
	return d.lines[i], nil
}

// Lines returns the document's lines in order.
func (d *Document) Lines() []*Line {
	out := make([]*Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// RemoveLine deletes line i.
func (d *Document) RemoveLine(i int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, i)
	}
	d.lines = append(d.lines[:i:i], d.lines[i+1:]...)
	return nil
}

// Totals sums the lines' stored price, tax percentage and final price.
func (d *Document) Totals() pricing.Totals {
	amounts := make([]pricing.LineAmounts, 0, len(d.lines))
	for _, l := range d.lines {
		if l.product == nil {
			continue
		}
		a := l.Amounts()
		amounts = append(amounts, pricing.LineAmounts{
			Price:         a.Price,
			TaxPercentage: l.TaxPercentage(),
			FinalPrice:    a.FinalPrice,
		})
	}
	return pricing.DocumentTotals(amounts)
}

// Validate returns ValidationErrors when the document cannot be saved.
func (d *Document) Validate() error {
	errs := ValidationErrors{}
	if fe := validation.Struct(d.Header); fe != nil {
		errs.Merge("", fe)
	}
	if _, ok := errs["quoteDate"]; !ok {
		if _, ok := errs["validUntil"]; !ok && d.ValidUntil < d.QuoteDate {
			errs["validUntil"] = "must not be before quoteDate"
		}
	}

	if len(d.lines) == 0 {
		errs["items"] = "must contain at least one line"
	}
	for i, l := range d.lines {
		errs.Merge(fmt.Sprintf("items[%d]", i), l.Validate())
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

type lineRules struct {
	Quantity           float64 `json:"quantity" validate:"gt=0"`
	UnitPrice          float64 `json:"unitPrice" validate:"gte=0.01"`
	DiscountPercentage float64 `json:"discountPercentage" validate:"gte=0,lte=100"`
	TaxPercentage      float64 `json:"taxPercentage" validate:"gte=0,lte=100"`
}

// Validate checks one line. A nil result means the line can be saved.
func (l *Line) Validate() validation.FieldErrors {
	if l.product == nil {
		return validation.FieldErrors{"productId": "is required"}
	}

	errs := validation.FieldErrors{}
	switch {
	case l.sheet != nil:
		errs["measurements"] = "has an unconfirmed calculation"
	case l.product.NeedsCalculationType() && l.calcType == "":
		errs["calculationType"] = "is required"
	case l.product.RequiresMeasurements() && len(l.rows) == 0:
		errs["measurements"] = "is required"
	}
	for k, v := range measure.ValidateRows(l.desc.Mode, l.rows) {
		errs["measurements"+k] = v
	}

	rules := lineRules{
		Quantity:           l.quantity,
		UnitPrice:          l.unitPrice,
		DiscountPercentage: l.discount,
		TaxPercentage:      l.taxPct,
	}
	if fe := validation.Struct(rules); fe != nil {
		// quantity of a measured line is reported through its table
		if len(errs) > 0 && l.product.RequiresMeasurements() {
			delete(fe, "quantity")
		}
		errs.Merge("", fe)
	}
	if l.product.MainType == catalog.MainTypeNos && l.quantity > 0 && l.quantity < 1 {
		errs["quantity"] = "must be at least 1"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
