package main

import (
	"errors"
	"net/http"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/common"
	"github.com/Simplici0/coatworks/internal/measure"
	"github.com/Simplici0/coatworks/internal/pricing"
	"github.com/Simplici0/coatworks/internal/quotation"
	"github.com/Simplici0/coatworks/internal/validation"
)

type measureRequest struct {
	ProductID       int64                   `json:"productId" validate:"required,gt=0"`
	CalculationType catalog.CalculationType `json:"calculationType"`
	LineQuantity    float64                 `json:"lineQuantity" validate:"gte=0"`
	Rows            []measure.Input         `json:"rows" validate:"required,min=1"`
}

type measureResponse struct {
	Rows     []measure.Row  `json:"rows"`
	Totals   measure.Totals `json:"totals"`
	Quantity float64        `json:"quantity"`
	Weight   float64        `json:"weight"`
}

// handleMeasure is the calculation dialog's confirm step: the rows are
// validated, computed and aggregated for the product.
func (s *server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	var req measureRequest
	if err := common.Bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.products.Get(r.Context(), req.ProductID)
	if err == nil && !p.Active() {
		err = catalog.ErrInactive
	}
	if err != nil {
		s.writeError(w, r, unprocessableLookup("productId", err))
		return
	}

	line := quotation.NewLine(s.defaultTax)
	if err := line.SelectProduct(p); err != nil {
		s.writeError(w, r, fieldError("productId", err))
		return
	}
	if p.NeedsCalculationType() {
		if err := line.ChooseCalculationType(req.CalculationType); err != nil {
			s.writeError(w, r, fieldError("calculationType", err))
			return
		}
	} else if req.CalculationType != "" && req.CalculationType != line.CalculationType() {
		s.writeError(w, r, fieldError("calculationType", catalog.ErrCalculationTypeForbidden))
		return
	}
	if !p.RequiresMeasurements() && req.LineQuantity > 0 {
		if err := line.SetQuantity(req.LineQuantity); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	sheet, err := line.OpenMeasurements()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i, in := range req.Rows {
		if i >= sheet.Len() {
			sheet.AddRow()
		}
		if err := sheet.UpdateRow(i, in); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := line.ConfirmMeasurements(); err != nil {
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			err = common.Unprocessable("validation failed", prefixed("rows", fields))
		}
		s.writeError(w, r, err)
		return
	}

	s.metrics.Calculation("measure")
	common.JSON(w, http.StatusOK, measureResponse{
		Rows:     line.Rows(),
		Totals:   line.MeasurementTotals(),
		Quantity: line.Quantity(),
		Weight:   line.Weight(),
	})
}

type priceRequest struct {
	Quantity           float64 `json:"quantity" validate:"gte=0"`
	UnitPrice          float64 `json:"unitPrice" validate:"gte=0"`
	DiscountPercentage float64 `json:"discountPercentage" validate:"gte=0,lte=100"`
	TaxPercentage      float64 `json:"taxPercentage" validate:"gte=0,lte=100"`
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := common.Bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.Calculation("price")
	common.JSON(w, http.StatusOK, pricing.PriceLine(req.Quantity, req.UnitPrice, req.DiscountPercentage, req.TaxPercentage))
}

type documentTotalsRequest struct {
	Lines []pricing.LineAmounts `json:"lines" validate:"required"`
}

func (s *server) handleDocumentTotals(w http.ResponseWriter, r *http.Request) {
	var req documentTotalsRequest
	if err := common.Bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.Calculation("document")
	common.JSON(w, http.StatusOK, pricing.DocumentTotals(req.Lines))
}

func fieldError(field string, err error) error {
	return common.Unprocessable("validation failed", validation.FieldErrors{field: err.Error()})
}

// prefixed joins row paths such as "[1].nos" onto field.
func prefixed(field string, errs validation.FieldErrors) validation.FieldErrors {
	out := make(validation.FieldErrors, len(errs))
	for k, v := range errs {
		out[field+k] = v
	}
	return out
}
