package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/messaging"

	"github.com/aayush-1o/truck/internal/models"
)

// NotificationStore is the persistence contract for in-app notifications.
type NotificationStore interface {
	Insert(ctx context.Context, n models.Notification) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)
	TokensByUser(ctx context.Context, userID int64) ([]string, error)
}

// NotificationService stores in-app notifications and forwards them as FCM
// pushes when the user has registered device tokens. Every failure is
// logged and swallowed; notifications never fail the triggering operation.
type NotificationService struct {
	Store NotificationStore
	// FCM may be nil when Firebase credentials are not configured.
	FCM *messaging.Client
}

// Notify records a notification and pushes it to the user's devices.
func (s *NotificationService) Notify(ctx context.Context, userID int64, title, message, kind string, shipmentID int64) {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
	}
	if shipmentID != 0 {
		n.ShipmentID = &shipmentID
	}
	if _, err := s.Store.Insert(ctx, n); err != nil {
		log.Printf("insert notification for user %d: %v", userID, err)
		return
	}
	s.push(ctx, userID, title, message, shipmentID)
}

func (s *NotificationService) push(ctx context.Context, userID int64, title, body string, shipmentID int64) {
	if s.FCM == nil {
		return
	}
	tokens, err := s.Store.TokensByUser(ctx, userID)
	if err != nil {
		log.Printf("load device tokens for user %d: %v", userID, err)
		return
	}
	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: map[string]string{
				"shipmentId": fmt.Sprintf("%d", shipmentID),
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{
					"apns-priority": "10",
				},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{
							Title: title,
							Body:  body,
						},
						Sound: "default",
					},
				},
			},
		}
		if _, err := s.FCM.Send(ctx, msg); err != nil {
			log.Printf("push to user %d: %v", userID, err)
		}
	}
}

// List returns the user's recent notifications.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	return s.Store.ListByUser(ctx, userID, limit)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.Store.MarkRead(ctx, userID, notificationID)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.Store.UnreadCount(ctx, userID)
}
