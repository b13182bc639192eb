package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// ItemHandler handles item endpoints
type ItemHandler struct {
	catalog *service.CatalogService
	ledger  *service.LedgerService
	batches *service.BatchService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(catalog *service.CatalogService, ledger *service.LedgerService, batches *service.BatchService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		catalog: catalog,
		ledger:  ledger,
		batches: batches,
		logger:  log,
	}
}

// Create creates a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name" validate:"required"`
		ItemCode    *string `json:"item_code"`
		DefaultUnit *string `json:"default_unit"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), &service.ItemInput{
		Name:        req.Name,
		ItemCode:    req.ItemCode,
		DefaultUnit: req.DefaultUnit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// List lists all items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Update applies a partial edit to an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Name        *string `json:"name"`
		ItemCode    *string `json:"item_code"`
		DefaultUnit *string `json:"default_unit"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.catalog.UpdateItem(r.Context(), id, &service.ItemUpdate{
		Name:        req.Name,
		ItemCode:    req.ItemCode,
		DefaultUnit: req.DefaultUnit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete deletes an item
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.DeleteItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListBatchesInStock lists batches of an item that still hold stock
func (h *ItemHandler) ListBatchesInStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batches, err := h.batches.ListInStock(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// ListTxns lists the movement ledger of an item
func (h *ItemHandler) ListTxns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txns, err := h.ledger.ListByItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, txns)
}
