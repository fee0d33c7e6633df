package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/aayush-1o/truck/internal/models"
	"github.com/aayush-1o/truck/internal/services"
)

type ShipmentHandler struct {
	Service *services.ShipmentService
}

type createShipmentRequest struct {
	Pickup     models.ShipmentLocation `json:"pickup"`
	Delivery   models.ShipmentLocation `json:"delivery"`
	Cargo      models.Cargo            `json:"cargo"`
	PickupDate string                  `json:"pickup_date"`
	Notes      string                  `json:"notes"`
	Price      int                     `json:"price"`
}

// CreateShipment handles POST /shipments.
func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createShipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := services.CreateShipmentInput{
		Pickup:   req.Pickup,
		Delivery: req.Delivery,
		Cargo:    req.Cargo,
		Notes:    req.Notes,
		Price:    req.Price,
	}
	if req.PickupDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PickupDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "pickup_date must be YYYY-MM-DD")
			return
		}
		in.PickupDate = parsed
	}

	shipment, err := h.Service.CreateShipment(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Printf("shipment %s created by user %d", shipment.TrackingID, actor.UserID)
	writeJSON(w, http.StatusCreated, shipment)
}

// GetShipments handles GET /shipments with role-based filtering.
func (h *ShipmentHandler) GetShipments(w http.ResponseWriter, r *http.Request) {
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

	shipments, err := h.Service.List(r.Context(), actor, r.URL.Query().Get("status"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shipments": shipments, "count": len(shipments)})
}

// GetShipment handles GET /shipments/:id.
func (h *ShipmentHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r, ":id")
	if !ok {
		return
	}

	shipment, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// trackResponse is the public projection: no party ids, no payment fields.
type trackResponse struct {
	TrackingID    string                      `json:"tracking_id"`
	Status        string                      `json:"status"`
	PickupCity    string                      `json:"pickup_city,omitempty"`
	DeliveryCity  string                      `json:"delivery_city,omitempty"`
	StatusHistory []models.StatusHistoryEntry `json:"status_history"`
}

// TrackShipment handles GET /shipments/track/:trackingId without auth.
func (h *ShipmentHandler) TrackShipment(w http.ResponseWriter, r *http.Request) {
	trackingID := r.URL.Query().Get(":trackingId")
	if trackingID == "" {
		writeError(w, http.StatusBadRequest, "tracking id required")
		return
	}

	shipment, err := h.Service.Track(r.Context(), trackingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{
		TrackingID:    shipment.TrackingID,
		Status:        shipment.Status,
		PickupCity:    shipment.Pickup.City,
		DeliveryCity:  shipment.Delivery.City,
		StatusHistory: shipment.StatusHistory,
	})
}

type updateStatusRequest struct {
	Status   string              `json:"status"`
	Location *models.Coordinates `json:"location"`
	Note     string              `json:"note"`
}

// UpdateStatus handles PATCH /shipments/:id/status.
func (h *ShipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r, ":id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shipment, err := h.Service.RequestTransition(r.Context(), actor, id, req.Status, req.Location, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

type assignDriverRequest struct {
	DriverID int64 `json:"driver_id"`
}

// AssignDriver handles PATCH /shipments/:id/assign.
func (h *ShipmentHandler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r, ":id")
	if !ok {
		return
	}

	var req assignDriverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DriverID == 0 {
		writeError(w, http.StatusBadRequest, "driver_id required")
		return
	}

	shipment, err := h.Service.AssignDriver(r.Context(), actor, id, req.DriverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// UpdateShipment handles PUT /shipments/:id, pending shipments only.
func (h *ShipmentHandler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r, ":id")
	if !ok {
		return
	}

	var upd models.ShipmentUpdate
	if !decodeBody(w, r, &upd) {
		return
	}

	shipment, err := h.Service.UpdateDetails(r.Context(), actor, id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelShipment handles DELETE /shipments/:id.
func (h *ShipmentHandler) CancelShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(w, r, ":id")
	if !ok {
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	shipment, err := h.Service.Cancel(r.Context(), actor, id, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
