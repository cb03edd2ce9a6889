package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/services"
)

const maxIdempotencyKeyLength = 128

// CreateOrder places an order from the caller's cart.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.UserID = userIDFromRequest(r)
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		writeError(ctx, w, http.StatusBadRequest, "Idempotency-Key is too long")
		return
	}

	result, err := h.orderService.CreateOrderAndPayment(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create order")
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// VerifyPayment confirms the gateway callback for an order.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusNotFound, "Not found")
		return
	}

	var input services.VerifyPaymentInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.OrderID = orderID
	input.UserID = userIDFromRequest(r)

	if missing := missingPaymentFields(input); len(missing) > 0 {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Error:   "Payment details are missing",
			Details: missing,
		})
		return
	}

	order, err := h.orderService.VerifyPaymentAndUpdateOrder(ctx, input)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to verify payment")
		return
	}

	writeJSON(ctx, w, http.StatusOK, order)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orderService.ListOrdersForUser(ctx, userIDFromRequest(r))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusNotFound, "Not found")
		return
	}

	order, err := h.orderService.GetOrderForUser(ctx, orderID, userIDFromRequest(r))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to get order")
		return
	}

	writeJSON(ctx, w, http.StatusOK, order)
}

func missingPaymentFields(input services.VerifyPaymentInput) map[string]string {
	missing := make(map[string]string)
	if strings.TrimSpace(input.GatewayOrderID) == "" {
		missing["razorpayOrderId"] = "Order ID is required"
	}
	if strings.TrimSpace(input.PaymentID) == "" {
		missing["razorpayPaymentId"] = "Payment ID is required"
	}
	return missing
}
