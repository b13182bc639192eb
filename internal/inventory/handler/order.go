package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders *service.OrderService
	logger *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *service.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: log,
	}
}

// Create creates a new order
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID          string  `json:"item_id" validate:"required,uuid"`
		MartName        string  `json:"mart_name" validate:"required"`
		OrderDate       string  `json:"order_date" validate:"required,datetime=2006-01-02"`
		QuantityOrdered float64 `json:"quantity_ordered" validate:"required,gt=0"`
		Unit            string  `json:"unit" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	orderDate, err := parseDate(req.OrderDate, "order_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Create(r.Context(), &service.OrderInput{
		ItemID:          req.ItemID,
		MartName:        req.MartName,
		OrderDate:       orderDate,
		QuantityOrdered: req.QuantityOrdered,
		Unit:            req.Unit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, order)
}

// Get gets an order by ID
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, order)
}

// List lists orders with optional order_date and mart_name filters
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orderDate, err := parseDateQuery(r, "order_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	martName := r.URL.Query().Get("mart_name")

	orders, err := h.orders.List(r.Context(), orderDate, martName)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, orders)
}

// ListMarts lists the distinct mart names seen across orders
func (h *OrderHandler) ListMarts(w http.ResponseWriter, r *http.Request) {
	names, err := h.orders.ListMartNames(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, names)
}

// Update applies a manual edit to an order
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		MartName           *string  `json:"mart_name"`
		OrderDate          *string  `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
		QuantityOrdered    *float64 `json:"quantity_ordered" validate:"omitempty,gt=0"`
		QuantityDispatched *float64 `json:"quantity_dispatched" validate:"omitempty,gte=0"`
		Unit               *string  `json:"unit"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	orderDate, err := parseOptionalDate(req.OrderDate, "order_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Update(r.Context(), id, &service.OrderUpdate{
		MartName:           req.MartName,
		OrderDate:          orderDate,
		QuantityOrdered:    req.QuantityOrdered,
		QuantityDispatched: req.QuantityDispatched,
		Unit:               req.Unit,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, order)
}

// Delete deletes an order
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.orders.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
