package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// StockEntryHandler handles stock receipt endpoints
type StockEntryHandler struct {
	receiving *service.ReceivingService
	logger    *logger.Logger
}

// NewStockEntryHandler creates a new stock entry handler
func NewStockEntryHandler(receiving *service.ReceivingService, log *logger.Logger) *StockEntryHandler {
	return &StockEntryHandler{
		receiving: receiving,
		logger:    log,
	}
}

// Create records a stock receipt
func (h *StockEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID       string          `json:"item_id" validate:"required,uuid"`
		ReceivedDate string          `json:"received_date" validate:"required,datetime=2006-01-02"`
		Quantity     float64         `json:"quantity" validate:"required,gt=0"`
		Unit         string          `json:"unit" validate:"required"`
		PricePerUnit decimal.Decimal `json:"price_per_unit"`
		TotalCost    decimal.Decimal `json:"total_cost"`
		Source       *string         `json:"source"`
		ExpiryDate   *string         `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	receivedDate, err := parseDate(req.ReceivedDate, "received_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	expiryDate, err := parseOptionalDate(req.ExpiryDate, "expiry_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.receiving.Receive(r.Context(), &service.StockReceipt{
		ItemID:       req.ItemID,
		ReceivedDate: receivedDate,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		PricePerUnit: req.PricePerUnit,
		TotalCost:    req.TotalCost,
		Source:       req.Source,
		ExpiryDate:   expiryDate,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// Get gets a stock entry by ID
func (h *StockEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.receiving.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// List lists stock entries with an optional received_date filter
func (h *StockEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	receivedDate, err := parseDateQuery(r, "received_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	offset, limit := parsePagination(r)

	entries, err := h.receiving.List(r.Context(), receivedDate, offset, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Update edits a stock entry
func (h *StockEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		ReceivedDate *string          `json:"received_date" validate:"omitempty,datetime=2006-01-02"`
		Source       *string          `json:"source"`
		PricePerUnit *decimal.Decimal `json:"price_per_unit"`
		TotalCost    *decimal.Decimal `json:"total_cost"`
		Quantity     *float64         `json:"quantity" validate:"omitempty,gt=0"`
		Unit         *string          `json:"unit"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	receivedDate, err := parseOptionalDate(req.ReceivedDate, "received_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.receiving.UpdateEntry(r.Context(), id, &service.StockEntryUpdate{
		ReceivedDate: receivedDate,
		Source:       req.Source,
		PricePerUnit: req.PricePerUnit,
		TotalCost:    req.TotalCost,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Delete removes a stock entry and takes its quantity back out of the batch
func (h *StockEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.receiving.DeleteEntry(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
