package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/services"
)

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.adminService.Dashboard(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load dashboard")
		return
	}

	writeJSON(ctx, w, http.StatusOK, stats)
}

func (h *Handlers) AdminOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.adminService.RecentOrders(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handlers) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusNotFound, "Not found")
		return
	}

	var input services.UpdateOrderStatusInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.OrderID = orderID

	order, err := h.adminService.UpdateOrderStatus(ctx, input)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update order status")
		return
	}

	writeJSON(ctx, w, http.StatusOK, order)
}
