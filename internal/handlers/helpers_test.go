package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aayush-1o/truck/internal/models"
	"github.com/aayush-1o/truck/internal/services"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", models.ErrUnauthorized, http.StatusForbidden},
		{"shipment not found", models.ErrShipmentNotFound, http.StatusNotFound},
		{"payment not found", models.ErrPaymentNotFound, http.StatusNotFound},
		{"driver not found", models.ErrDriverNotFound, http.StatusNotFound},
		{"invalid transition", &models.InvalidTransitionError{From: "delivered", To: "cancelled"}, http.StatusConflict},
		{"not pending", models.ErrNotPending, http.StatusConflict},
		{"already paid", models.ErrAlreadyPaid, http.StatusConflict},
		{"driver unavailable", models.ErrDriverUnavailable, http.StatusConflict},
		{"unknown status", models.ErrUnknownStatus, http.StatusBadRequest},
		{"bad signature", models.ErrSignatureInvalid, http.StatusBadRequest},
		{"missing payment fields", models.ErrMissingPaymentFields, http.StatusBadRequest},
		{"invalid amount", models.ErrInvalidAmount, http.StatusBadRequest},
		{"gateway unconfigured", models.ErrGatewayNotConfigured, http.StatusServiceUnavailable},
		{"provider failure", &services.RazorpayError{StatusCode: 500, Status: "500"}, http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessageHidesInternals(t *testing.T) {
	if msg := errorMessage(errors.New("dial tcp 10.0.0.5: connection refused")); msg != "internal server error" {
		t.Errorf("internal error leaked: %q", msg)
	}
	if msg := errorMessage(models.ErrAlreadyPaid); msg == "internal server error" {
		t.Error("client-facing error was masked")
	}
}
