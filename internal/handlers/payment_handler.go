package handlers

import (
	"net/http"
	"strconv"

	"github.com/aayush-1o/truck/internal/services"
)

type PaymentHandler struct {
	Service *services.PaymentService
}

type createOrderRequest struct {
	ShipmentID int64 `json:"shipment_id"`
}

// CreateOrder handles POST /payments/order.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ShipmentID == 0 {
		writeError(w, http.StatusBadRequest, "shipment_id required")
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), actor, req.ShipmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// VerifyPayment handles POST /payments/verify, the settlement gate.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in services.VerifyInput
	if !decodeBody(w, r, &in) {
		return
	}

	payment, err := h.Service.Verify(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// PaymentHistory handles GET /payments/history.
func (h *PaymentHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.Service.History(r.Context(), actor, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
