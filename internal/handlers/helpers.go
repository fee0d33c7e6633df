package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aayush-1o/truck/internal/models"
	"github.com/aayush-1o/truck/internal/services"
)

type contextKey string

// ContextKeyPrincipal is where the JWT middleware stores the acting user.
const ContextKeyPrincipal = contextKey("principal")

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// writeServiceError maps a service error onto its HTTP status class.
// Authorization, missing resources, state conflicts, bad input and provider
// failures each land on a distinct class so clients can react without
// parsing messages.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), errorMessage(err))
}

func errorStatus(err error) int {
	var invalid *models.InvalidTransitionError
	var provider *services.RazorpayError
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrShipmentNotFound),
		errors.Is(err, models.ErrPaymentNotFound),
		errors.Is(err, models.ErrDriverNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid),
		errors.Is(err, models.ErrNotPending),
		errors.Is(err, models.ErrAlreadyPaid),
		errors.Is(err, models.ErrDriverUnavailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, models.ErrSignatureInvalid),
		errors.Is(err, models.ErrMissingPaymentFields),
		errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrGatewayNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &provider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// principalFromContext returns the acting user the JWT middleware stored on
// the request, or false when the route was reached without authentication.
func principalFromContext(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(ContextKeyPrincipal).(models.Principal)
	return p, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
