package handlers

import (
	"net/http"
	"strconv"

	"github.com/aayush-1o/truck/internal/services"
)

type DriverHandler struct {
	Service *services.DriverService
}

// AvailableDrivers handles GET /drivers/available, admin only.
func (h *DriverHandler) AvailableDrivers(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	drivers, err := h.Service.ListAvailable(r.Context(), actor, r.URL.Query().Get("vehicle_type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"drivers": drivers, "count": len(drivers)})
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

// SetAvailability handles PATCH /drivers/availability for the acting driver.
func (h *DriverHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req availabilityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	driver, err := h.Service.SetAvailability(r.Context(), actor, req.Available)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, driver)
}

// Profile handles GET /drivers/me.
func (h *DriverHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	driver, err := h.Service.Profile(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, driver)
}

// NearbyDrivers handles GET /drivers/nearby?lat=&lng=&radius_km=, admin only.
func (h *DriverHandler) NearbyDrivers(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng required")
		return
	}
	radius := 0.0
	if v := r.URL.Query().Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radius = parsed
	}

	ids, err := h.Service.NearbyDrivers(r.Context(), actor, lat, lng, radius)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"driver_user_ids": ids})
}
