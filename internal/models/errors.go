package models

import (
	"errors"
	"fmt"
)

var (
	ErrShipmentNotFound = errors.New("models: shipment not found")
	ErrPaymentNotFound  = errors.New("models: payment not found")
	ErrDriverNotFound   = errors.New("models: driver not found")
	ErrUserNotFound     = errors.New("models: user not found")

	// ErrUnauthorized covers wrong role or wrong party for the requested action.
	ErrUnauthorized = errors.New("models: not authorized for this action")

	// State errors. The caller must re-fetch current state before retrying.
	ErrUnknownStatus     = errors.New("models: unknown shipment status")
	ErrNotPending        = errors.New("models: can only edit details of pending shipments")
	ErrDriverUnavailable = errors.New("models: driver is not available")
	ErrAlreadyPaid       = errors.New("models: shipment already paid")

	// Payment gate errors.
	ErrSignatureInvalid     = errors.New("models: payment verification failed - invalid signature")
	ErrMissingPaymentFields = errors.New("models: missing payment verification data")
	ErrInvalidAmount        = errors.New("models: invalid shipment price")
	ErrGatewayNotConfigured = errors.New("models: payment gateway not configured")
)

// InvalidTransitionError reports a status change the lifecycle graph forbids.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
