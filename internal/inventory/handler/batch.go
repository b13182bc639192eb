package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// BatchHandler handles batch endpoints. Quantities have no endpoint here;
// they only move through receipts, dispatches and rejections.
type BatchHandler struct {
	batches *service.BatchService
	ledger  *service.LedgerService
	logger  *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batches *service.BatchService, ledger *service.LedgerService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		batches: batches,
		ledger:  ledger,
		logger:  log,
	}
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.batches.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// List lists batches with pagination
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)

	batches, err := h.batches.List(r.Context(), offset, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// Update applies an administrative edit to a batch
func (h *BatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Unit       *string `json:"unit"`
		ExpiryDate *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
		ReceivedAt *string `json:"received_at" validate:"omitempty,datetime=2006-01-02"`
		Remarks    *string `json:"remarks"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiryDate, err := parseOptionalDate(req.ExpiryDate, "expiry_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	receivedAt, err := parseOptionalDate(req.ReceivedAt, "received_at")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.batches.Update(r.Context(), id, &service.BatchUpdate{
		Unit:       req.Unit,
		ExpiryDate: expiryDate,
		ReceivedAt: receivedAt,
		Remarks:    req.Remarks,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// Delete hard-deletes a batch
func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.batches.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListTxns lists the movement ledger of a batch
func (h *BatchHandler) ListTxns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txns, err := h.ledger.ListByBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, txns)
}

// PublishExpiryAlerts triggers expiry alert events for batches expiring soon.
// Intended to be hit by a scheduler.
func (h *BatchHandler) PublishExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	withinDays := 7
	if v := r.URL.Query().Get("within_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			withinDays = n
		}
	}

	count, err := h.batches.PublishExpiryAlerts(r.Context(), withinDays)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int{"alerts_published": count})
}
