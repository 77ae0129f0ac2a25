package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/common"
	"github.com/Simplici0/coatworks/internal/validation"
)

type createProductRequest struct {
	Name          string                  `json:"name" validate:"required,max=200"`
	Weight        float64                 `json:"weight" validate:"gte=0"`
	MainType      catalog.MainType        `json:"type" validate:"required"`
	SubType       catalog.CalculationType `json:"subType"`
	SaleAmount    float64                 `json:"sale_amount" validate:"gte=0"`
	TaxPercentage float64                 `json:"tax_percentage" validate:"gte=0,lte=100"`
	PricingBasis  catalog.PricingBasis    `json:"pricing_basis" validate:"omitempty,oneof=AREA WEIGHT"`
}

// product checks the type combination and returns the catalog entry to
// insert.
func (req createProductRequest) product() (catalog.Product, error) {
	p := catalog.Product{
		Name:          strings.TrimSpace(req.Name),
		Weight:        req.Weight,
		MainType:      req.MainType,
		SubType:       req.SubType,
		SaleAmount:    req.SaleAmount,
		TaxPercentage: req.TaxPercentage,
		PricingBasis:  req.PricingBasis,
	}
	if p.Name == "" {
		return p, common.Unprocessable("validation failed", validation.FieldErrors{"name": "is required"})
	}
	if p.SubType != "" && p.MainType != catalog.MainTypeRegular {
		return p, common.Unprocessable("validation failed", validation.FieldErrors{"subType": "only applies to REGULAR products"})
	}
	return p, nil
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Search:     r.URL.Query().Get("q"),
		ActiveOnly: activeOnly(r.URL.Query().Get("active")),
	}
	products, err := s.products.List(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"items": products})
}

func (s *server) handleProductsCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := common.Bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := req.product()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.products.Create(r.Context(), p)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			err = common.NewAppError("conflict", "a product with this name already exists", http.StatusConflict, err)
		}
		s.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, created)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, p)
}

// activeOnly defaults to true; "0", "false" or "all" also list inactive
// products.
func activeOnly(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false", "all":
		return false
	}
	return true
}

// unprocessableLookup turns a missing product on a submitted payload into a
// field error instead of a 404 on the request path.
func unprocessableLookup(field string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return common.Unprocessable("validation failed", validation.FieldErrors{field: "does not exist"})
	case errors.Is(err, catalog.ErrInactive):
		return common.Unprocessable("validation failed", validation.FieldErrors{field: "is inactive"})
	}
	return err
}
