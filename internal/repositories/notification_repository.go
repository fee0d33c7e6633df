package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aayush-1o/truck/internal/models"
)

// NotificationRepository persists per-user notifications and the device
// tokens used for push delivery.
type NotificationRepository struct {
	DB *sql.DB
}

// Insert stores a notification for a user.
func (r *NotificationRepository) Insert(ctx context.Context, n models.Notification) (int64, error) {
	var shipmentID interface{}
	if n.ShipmentID != nil {
		shipmentID = *n.ShipmentID
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO notifications (user_id, title, message, kind, shipment_id) VALUES (?,?,?,?,?)`,
		n.UserID, n.Title, n.Message, n.Kind, shipmentID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id, user_id, title, message, kind, shipment_id, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var (
			n          models.Notification
			shipmentID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &shipmentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if shipmentID.Valid {
			n.ShipmentID = &shipmentID.Int64
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags one of the user's notifications as read. The user id is
// part of the predicate so users cannot touch each other's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, notificationID, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.New("repositories: notification not found")
	}
	return nil
}

// UnreadCount returns how many unread notifications the user has.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&count)
	return count, err
}

// TokensByUser returns the user's registered FCM device tokens.
func (r *NotificationRepository) TokensByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
