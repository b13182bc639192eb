package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// RejectionEntryHandler handles rejection endpoints
type RejectionEntryHandler struct {
	rejections *service.RejectionService
	logger     *logger.Logger
}

// NewRejectionEntryHandler creates a new rejection entry handler
func NewRejectionEntryHandler(rejections *service.RejectionService, log *logger.Logger) *RejectionEntryHandler {
	return &RejectionEntryHandler{
		rejections: rejections,
		logger:     log,
	}
}

// Create records rejected stock against a batch
func (h *RejectionEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchID       string  `json:"batch_id" validate:"required,uuid"`
		Quantity      float64 `json:"quantity" validate:"required,gt=0"`
		Reason        *string `json:"reason"`
		RejectedBy    *string `json:"rejected_by"`
		RejectionDate string  `json:"rejection_date" validate:"required,datetime=2006-01-02"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	rejectionDate, err := parseDate(req.RejectionDate, "rejection_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.rejections.Reject(r.Context(), &service.Rejection{
		BatchID:       req.BatchID,
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		RejectedBy:    req.RejectedBy,
		RejectionDate: rejectionDate,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, entry)
}

// Get gets a rejection entry by ID
func (h *RejectionEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.rejections.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// List lists rejection entries. With a rejection_date filter the report view
// is used, optionally narrowed to a comma-separated item_ids list.
func (h *RejectionEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	rejectionDate, err := parseDateQuery(r, "rejection_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if rejectionDate == nil {
		if r.URL.Query().Get("item_ids") != "" {
			httputil.Error(w, errors.BadRequest("item_ids filter requires rejection_date"))
			return
		}

		entries, err := h.rejections.List(r.Context())
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, entries)
		return
	}

	var itemIDs []string
	if raw := r.URL.Query().Get("item_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				itemIDs = append(itemIDs, id)
			}
		}
	}

	entries, err := h.rejections.ListByDateAndItems(r.Context(), *rejectionDate, itemIDs)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}
