package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aayush-1o/truck/internal/models"
)

// PaymentRepository persists Razorpay payment records. One row per shipment;
// re-requesting an order replaces the pending row, a paid row is immutable.
type PaymentRepository struct {
	DB *sql.DB
}

const paymentColumns = `id, shipment_id, shipper_id, razorpay_order_id, razorpay_payment_id, razorpay_signature, amount, currency, status, notes, created_at, updated_at`

// UpsertCreated stores a freshly created provider order for a shipment,
// replacing any previous non-settled record for the same shipment. A row
// that settled in the meantime is never overwritten: every assignment is
// guarded on the stored status, so a paid row keeps its payment id and
// signature, the statement affects zero rows and the caller gets
// models.ErrAlreadyPaid. The status assignment comes last because MySQL
// applies the update list in order and the earlier guards must read the
// original status.
func (r *PaymentRepository) UpsertCreated(ctx context.Context, p models.Payment) error {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO payments
		(shipment_id, shipper_id, razorpay_order_id, amount, currency, status, notes)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			shipper_id = IF(status = 'paid', shipper_id, VALUES(shipper_id)),
			razorpay_order_id = IF(status = 'paid', razorpay_order_id, VALUES(razorpay_order_id)),
			razorpay_payment_id = IF(status = 'paid', razorpay_payment_id, NULL),
			razorpay_signature = IF(status = 'paid', razorpay_signature, NULL),
			amount = IF(status = 'paid', amount, VALUES(amount)),
			currency = IF(status = 'paid', currency, VALUES(currency)),
			notes = IF(status = 'paid', notes, VALUES(notes)),
			updated_at = IF(status = 'paid', updated_at, CURRENT_TIMESTAMP),
			status = IF(status = 'paid', status, VALUES(status))`,
		p.ShipmentID, p.ShipperID, p.RazorpayOrderID, p.Amount, p.Currency, models.PaymentCreated, nullIfEmpty(p.Notes))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// MySQL reports 1 for an insert, 2 for an update that changed values
	// and 0 when every guard held the old value, which only happens for a
	// settled row (a fresh order always carries a new order id).
	if rows == 0 {
		return models.ErrAlreadyPaid
	}
	return nil
}

// GetByOrderID returns the payment record for a provider order reference.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE razorpay_order_id = ?`, orderID)
	return scanPayment(row)
}

// FindPaidByShipment returns the settled payment for a shipment, or
// models.ErrPaymentNotFound when the shipment carries no paid record.
func (r *PaymentRepository) FindPaidByShipment(ctx context.Context, shipmentID int64) (models.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE shipment_id = ? AND status = ?`, shipmentID, models.PaymentPaid)
	return scanPayment(row)
}

// MarkPaid settles a payment exactly once. The conditional update only
// touches rows that are not yet paid, so a second verify for the same order
// (or a concurrent one) affects zero rows and reports models.ErrAlreadyPaid
// instead of overwriting the settlement receipt.
func (r *PaymentRepository) MarkPaid(ctx context.Context, orderID, paymentID, signature string) (models.Payment, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE payments
		SET status = ?, razorpay_payment_id = ?, razorpay_signature = ?, updated_at = CURRENT_TIMESTAMP
		WHERE razorpay_order_id = ? AND status <> ?`,
		models.PaymentPaid, paymentID, signature, orderID, models.PaymentPaid)
	if err != nil {
		return models.Payment{}, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return models.Payment{}, err
	}
	if rows == 0 {
		existing, getErr := r.GetByOrderID(ctx, orderID)
		if getErr != nil {
			return models.Payment{}, getErr
		}
		if existing.Status == models.PaymentPaid {
			return existing, models.ErrAlreadyPaid
		}
		return models.Payment{}, models.ErrPaymentNotFound
	}
	return r.GetByOrderID(ctx, orderID)
}

// ListByShipper returns the shipper's payment records, newest first.
func (r *PaymentRepository) ListByShipper(ctx context.Context, shipperID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE shipper_id = ? ORDER BY created_at DESC LIMIT ?`, shipperID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (models.Payment, error) {
	var (
		p                    models.Payment
		paymentID, signature sql.NullString
		notes                sql.NullString
	)
	err := row.Scan(&p.ID, &p.ShipmentID, &p.ShipperID, &p.RazorpayOrderID, &paymentID, &signature,
		&p.Amount, &p.Currency, &p.Status, &notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, models.ErrPaymentNotFound
	}
	if err != nil {
		return models.Payment{}, err
	}
	p.RazorpayPaymentID = paymentID.String
	p.RazorpaySignature = signature.String
	p.Notes = notes.String
	return p, nil
}
