package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/common"
	"github.com/Simplici0/coatworks/internal/export"
	"github.com/Simplici0/coatworks/internal/quotation"
	"github.com/Simplici0/coatworks/internal/store"
	"github.com/Simplici0/coatworks/internal/validation"
)

const defaultPerPage = 20

// documentRoutes mounts the CRUD and export endpoints for one document kind.
// A document of the other kind is reported as missing.
func (s *server) documentRoutes(kind quotation.Kind) func(chi.Router) {
	h := documentHandlers{server: s, kind: kind}
	return func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/status", h.updateStatus)
		r.Get("/{id}/text", h.text)
		r.Get("/{id}/xlsx", h.xlsx)
	}
}

type documentHandlers struct {
	*server
	kind quotation.Kind
}

func (h documentHandlers) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, defaultPerPage)
	result, err := h.documents.List(r.Context(), store.ListParams{
		Kind:    h.kind,
		Query:   r.URL.Query().Get("q"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}

func (h documentHandlers) create(w http.ResponseWriter, r *http.Request) {
	doc, err := h.submitted(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	snap := doc.Snapshot()
	snap.Reference = ""
	saved, err := h.documents.Create(r.Context(), snap)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DocumentSaved(string(h.kind), "create")
	h.logger.Info().Int64("id", saved.ID).Str("kind", string(h.kind)).Str("reference", saved.Reference).Msg("document created")
	common.JSON(w, http.StatusCreated, saved)
}

func (h documentHandlers) update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	doc, err := h.submitted(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	saved, err := h.documents.Update(r.Context(), existing.ID, doc.Snapshot())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.DocumentSaved(string(h.kind), "update")
	common.JSON(w, http.StatusOK, saved)
}

// submitted decodes a document snapshot, replays it against the current
// catalog and validates the result.
func (h documentHandlers) submitted(w http.ResponseWriter, r *http.Request) (*quotation.Document, error) {
	var snap quotation.DocumentSnapshot
	if err := common.DecodeJSON(w, r, &snap); err != nil {
		return nil, err
	}
	snap.Kind = h.kind

	doc, err := quotation.FromSnapshot(r.Context(), snap, h.products, h.defaultTax)
	if err != nil {
		return nil, restoreError(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, common.Unprocessable("validation failed", err)
	}
	return doc, nil
}

// restoreError reports catalog mismatches in a submitted payload as
// validation failures; storage errors pass through.
func restoreError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrInactive),
		errors.Is(err, catalog.ErrUnknownMainType),
		errors.Is(err, catalog.ErrCalculationTypeRequired),
		errors.Is(err, catalog.ErrCalculationTypeForbidden):
		field, msg := splitItemError(err.Error())
		return common.Unprocessable("validation failed", validation.FieldErrors{field: msg})
	}
	return err
}

// splitItemError splits "items[2]: message" into its path and message.
func splitItemError(s string) (string, string) {
	if path, msg, ok := strings.Cut(s, ": "); ok && strings.HasPrefix(path, "items[") {
		return path, msg
	}
	return "items", s
}

func (h documentHandlers) get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, doc)
}

func (h documentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.documents.Delete(r.Context(), doc.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h documentHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := common.Bind(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := quotation.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, fieldError("status", err))
		return
	}
	if err := h.documents.UpdateStatus(r.Context(), doc.ID, status); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc.Status = status
	common.JSON(w, http.StatusOK, doc)
}

func (h documentHandlers) text(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.Text(doc)))
}

func (h documentHandlers) xlsx(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	data, err := export.Workbook(doc)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}
	filename := strings.ToLower(string(h.kind)) + "-" + doc.Reference + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// load reads the document named by the URL. The saved snapshot is returned
// as stored, without recalculation.
func (h documentHandlers) load(w http.ResponseWriter, r *http.Request) (quotation.DocumentSnapshot, bool) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return quotation.DocumentSnapshot{}, false
	}
	doc, err := h.documents.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return quotation.DocumentSnapshot{}, false
	}
	if doc.Kind != h.kind {
		h.writeError(w, r, store.ErrNotFound)
		return quotation.DocumentSnapshot{}, false
	}
	return doc, true
}
