package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
)

// UOMHandler handles unit-of-measure endpoints
type UOMHandler struct {
	catalog *service.CatalogService
}

// NewUOMHandler creates a new unit-of-measure handler
func NewUOMHandler(catalog *service.CatalogService) *UOMHandler {
	return &UOMHandler{catalog: catalog}
}

// Create creates a new unit of measure
func (h *UOMHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string  `json:"code" validate:"required"`
		Description *string `json:"description"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	uom, err := h.catalog.CreateUoM(r.Context(), &service.UoMInput{
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, uom)
}

// List lists all units of measure
func (h *UOMHandler) List(w http.ResponseWriter, r *http.Request) {
	uoms, err := h.catalog.ListUoMs(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, uoms)
}

// Delete deletes a unit of measure
func (h *UOMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.DeleteUoM(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
