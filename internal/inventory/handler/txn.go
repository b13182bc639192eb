package handler

import (
	"net/http"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
)

// TxnHandler exposes the movement ledger read-only. There are no write
// endpoints; ledger rows only appear through the movement flows.
type TxnHandler struct {
	ledger *service.LedgerService
}

// NewTxnHandler creates a new ledger handler
func NewTxnHandler(ledger *service.LedgerService) *TxnHandler {
	return &TxnHandler{ledger: ledger}
}

// List lists ledger rows with pagination, newest first
func (h *TxnHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)

	txns, err := h.ledger.List(r.Context(), offset, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, txns)
}
