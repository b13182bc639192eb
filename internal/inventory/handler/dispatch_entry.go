package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// DispatchEntryHandler handles dispatch endpoints
type DispatchEntryHandler struct {
	dispatch *service.DispatchService
	logger   *logger.Logger
}

// NewDispatchEntryHandler creates a new dispatch entry handler
func NewDispatchEntryHandler(dispatch *service.DispatchService, log *logger.Logger) *DispatchEntryHandler {
	return &DispatchEntryHandler{
		dispatch: dispatch,
		logger:   log,
	}
}

// Create records a single-batch dispatch
func (h *DispatchEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchID      string  `json:"batch_id" validate:"required,uuid"`
		MartName     string  `json:"mart_name" validate:"required"`
		DispatchDate string  `json:"dispatch_date" validate:"required,datetime=2006-01-02"`
		Quantity     float64 `json:"quantity" validate:"required,gt=0"`
		Unit         string  `json:"unit" validate:"required"`
		Remarks      *string `json:"remarks"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	dispatchDate, err := parseDate(req.DispatchDate, "dispatch_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.dispatch.Dispatch(r.Context(), &service.SingleDispatch{
		BatchID:      req.BatchID,
		MartName:     req.MartName,
		DispatchDate: dispatchDate,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Remarks:      req.Remarks,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// CreateFromOrder fulfills an open order from one or more batches
func (h *DispatchEntryHandler) CreateFromOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID       string  `json:"item_id" validate:"required,uuid"`
		MartName     string  `json:"mart_name" validate:"required"`
		DispatchDate string  `json:"dispatch_date" validate:"required,datetime=2006-01-02"`
		Unit         string  `json:"unit" validate:"required"`
		Remarks      *string `json:"remarks"`
		Allocations  []struct {
			BatchID  string  `json:"batch_id" validate:"required,uuid"`
			Quantity float64 `json:"quantity" validate:"required,gt=0"`
		} `json:"allocations" validate:"required,min=1,dive"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	dispatchDate, err := parseDate(req.DispatchDate, "dispatch_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	allocations := make([]service.BatchAllocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocations = append(allocations, service.BatchAllocation{
			BatchID:  a.BatchID,
			Quantity: a.Quantity,
		})
	}

	entries, err := h.dispatch.DispatchFromOrder(r.Context(), &service.OrderDispatch{
		ItemID:       req.ItemID,
		MartName:     req.MartName,
		DispatchDate: dispatchDate,
		Unit:         req.Unit,
		Remarks:      req.Remarks,
		Allocations:  allocations,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entries)
}

// Get gets a dispatch entry by ID
func (h *DispatchEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.dispatch.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// List lists dispatch entries with optional dispatch_date and mart_name filters
func (h *DispatchEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	dispatchDate, err := parseDateQuery(r, "dispatch_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	martName := r.URL.Query().Get("mart_name")
	offset, limit := parsePagination(r)

	entries, err := h.dispatch.List(r.Context(), dispatchDate, martName, offset, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// Update edits a dispatch entry and reconciles batch, order and ledger
func (h *DispatchEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		DispatchDate *string  `json:"dispatch_date" validate:"omitempty,datetime=2006-01-02"`
		Quantity     *float64 `json:"quantity" validate:"omitempty,gt=0"`
		Unit         *string  `json:"unit"`
		Remarks      *string  `json:"remarks"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	dispatchDate, err := parseOptionalDate(req.DispatchDate, "dispatch_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.dispatch.Update(r.Context(), id, &service.DispatchUpdate{
		DispatchDate: dispatchDate,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Remarks:      req.Remarks,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Delete removes a dispatch entry and restores the stock
func (h *DispatchEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.dispatch.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
