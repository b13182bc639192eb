package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
)

// ConversionHandler handles unit conversion mapping endpoints
type ConversionHandler struct {
	catalog *service.CatalogService
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(catalog *service.CatalogService) *ConversionHandler {
	return &ConversionHandler{catalog: catalog}
}

// Create creates a conversion mapping
func (h *ConversionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID     string  `json:"item_id" validate:"required,uuid"`
		SourceUnit string  `json:"source_unit" validate:"required"`
		TargetUnit string  `json:"target_unit" validate:"required"`
		Factor     float64 `json:"factor" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conv, err := h.catalog.CreateConversion(r.Context(), &service.ConversionInput{
		ItemID:     req.ItemID,
		SourceUnit: req.SourceUnit,
		TargetUnit: req.TargetUnit,
		Factor:     req.Factor,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, conv)
}

// List lists conversion mappings, optionally filtered by item_id
func (h *ConversionHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("item_id")

	convs, err := h.catalog.ListConversions(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, convs)
}

// Update updates the factor of a conversion mapping
func (h *ConversionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Factor float64 `json:"factor" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conv, err := h.catalog.UpdateConversionFactor(r.Context(), id, req.Factor)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, conv)
}

// Delete deletes a conversion mapping
func (h *ConversionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.DeleteConversion(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
