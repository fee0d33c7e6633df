package models

import "time"

// Payment statuses.
const (
	PaymentCreated  = "created"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment is one Razorpay payment record. Amount is in paise. The
// signature is stored as the settlement receipt but never serialized out.
type Payment struct {
	ID                int64     `json:"id"`
	ShipmentID        int64     `json:"shipment_id"`
	ShipperID         int64     `json:"shipper_id"`
	RazorpayOrderID   string    `json:"razorpay_order_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string    `json:"-"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
