package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aayush-1o/truck/internal/models"
)

// PaymentStore is the payment persistence contract.
type PaymentStore interface {
	UpsertCreated(ctx context.Context, p models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (models.Payment, error)
	FindPaidByShipment(ctx context.Context, shipmentID int64) (models.Payment, error)
	MarkPaid(ctx context.Context, orderID, paymentID, signature string) (models.Payment, error)
	ListByShipper(ctx context.Context, shipperID int64, limit int) ([]models.Payment, error)
}

// PaymentGateway is the provider contract: order creation and signature
// verification. The signature check never touches the network.
type PaymentGateway interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PaymentService owns the settlement gate in front of shipment payments.
// Nothing here trusts client-reported amounts or statuses.
type PaymentService struct {
	Payments  PaymentStore
	Shipments ShipmentStore
	Gateway   PaymentGateway
	Notifier  Notifier
	Logger    *slog.Logger
}

// PaymentOrder is what the client needs to open the checkout widget.
type PaymentOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifyInput carries the three fields the checkout callback returns.
type VerifyInput struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentHistory is one shipper's payments plus the settled total.
type PaymentHistory struct {
	Payments  []models.Payment `json:"payments"`
	TotalPaid int64            `json:"totalPaid"`
}

// CreateOrder opens a provider order for the shipment's server-computed
// total. Re-invoking it for the same unpaid shipment replaces the pending
// order; a settled shipment is rejected outright.
func (p *PaymentService) CreateOrder(ctx context.Context, actor models.Principal, shipmentID int64) (PaymentOrder, error) {
	if !p.Gateway.Configured() {
		return PaymentOrder{}, models.ErrGatewayNotConfigured
	}

	shipment, err := p.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return PaymentOrder{}, err
	}
	if actor.Role != models.RoleAdmin && shipment.ShipperID != actor.UserID {
		return PaymentOrder{}, models.ErrUnauthorized
	}
	if shipment.Pricing.TotalPrice <= 0 {
		return PaymentOrder{}, models.ErrInvalidAmount
	}

	if _, err := p.Payments.FindPaidByShipment(ctx, shipmentID); err == nil {
		return PaymentOrder{}, models.ErrAlreadyPaid
	} else if !errors.Is(err, models.ErrPaymentNotFound) {
		return PaymentOrder{}, err
	}

	// Razorpay amounts are integer paise.
	amount := int64(shipment.Pricing.TotalPrice) * 100
	receipt := fmt.Sprintf("receipt_%d", shipmentID)
	notes := map[string]string{
		"shipmentId": fmt.Sprintf("%d", shipmentID),
		"trackingId": shipment.TrackingID,
	}

	orderID, err := p.Gateway.CreateOrder(ctx, amount, "INR", receipt, notes)
	if err != nil {
		return PaymentOrder{}, err
	}

	record := models.Payment{
		ShipmentID:      shipmentID,
		ShipperID:       shipment.ShipperID,
		RazorpayOrderID: orderID,
		Amount:          amount,
		Currency:        "INR",
		Notes:           fmt.Sprintf("Shipment %s", shipment.TrackingID),
	}
	if err := p.Payments.UpsertCreated(ctx, record); err != nil {
		return PaymentOrder{}, err
	}

	return PaymentOrder{
		OrderID:  orderID,
		Amount:   amount,
		Currency: "INR",
		KeyID:    p.Gateway.KeyID(),
	}, nil
}

// Verify is the integrity gate: it recomputes the provider signature over
// the order/payment pair and settles the payment only on an exact match.
// A repeat call for an already settled payment is a no-op success.
func (p *PaymentService) Verify(ctx context.Context, actor models.Principal, in VerifyInput) (models.Payment, error) {
	if strings.TrimSpace(in.OrderID) == "" || strings.TrimSpace(in.PaymentID) == "" || strings.TrimSpace(in.Signature) == "" {
		return models.Payment{}, models.ErrMissingPaymentFields
	}

	payment, err := p.Payments.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		return models.Payment{}, err
	}

	shipment, err := p.Shipments.GetByID(ctx, payment.ShipmentID)
	if err != nil {
		return models.Payment{}, err
	}
	if actor.Role != models.RoleAdmin && shipment.ShipperID != actor.UserID {
		return models.Payment{}, models.ErrUnauthorized
	}

	if payment.Status == models.PaymentPaid {
		return payment, nil
	}

	if !p.Gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		p.logger().Warn("payment signature mismatch",
			"order_id", in.OrderID,
			"payment_id", in.PaymentID,
			"shipment_id", payment.ShipmentID,
			"user_id", actor.UserID)
		return models.Payment{}, models.ErrSignatureInvalid
	}

	paid, err := p.Payments.MarkPaid(ctx, in.OrderID, in.PaymentID, in.Signature)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyPaid) {
			// Lost a verify race; the payment is settled either way.
			return paid, nil
		}
		return models.Payment{}, err
	}

	if err := p.Shipments.SetPaymentStatus(ctx, payment.ShipmentID, "paid"); err != nil {
		p.logger().Error("set shipment payment status", "shipment_id", payment.ShipmentID, "err", err)
	}

	if p.Notifier != nil {
		p.Notifier.Notify(ctx, shipment.ShipperID, "Payment Successful",
			fmt.Sprintf("Payment of ₹%d received for shipment %s.", paid.Amount/100, shipment.TrackingID),
			models.NotifySuccess, shipment.ID)
	}

	return paid, nil
}

// History lists the shipper's payments with the settled total in paise.
func (p *PaymentService) History(ctx context.Context, actor models.Principal, limit int) (PaymentHistory, error) {
	payments, err := p.Payments.ListByShipper(ctx, actor.UserID, limit)
	if err != nil {
		return PaymentHistory{}, err
	}
	history := PaymentHistory{Payments: payments}
	for _, pay := range payments {
		if pay.Status == models.PaymentPaid {
			history.TotalPaid += pay.Amount
		}
	}
	return history, nil
}

func (p *PaymentService) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
