package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(""))
	shipperMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("shipper"))
	driverMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("driver"))
	adminMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	// Shipments
	mux.Post("/shipments", shipperMiddleware.ThenFunc(app.shipmentHandler.CreateShipment))
	mux.Get("/shipments/track/:trackingId", standardMiddleware.ThenFunc(app.shipmentHandler.TrackShipment))
	mux.Get("/shipments/:id", authMiddleware.ThenFunc(app.shipmentHandler.GetShipment))
	mux.Get("/shipments", authMiddleware.ThenFunc(app.shipmentHandler.GetShipments))
	mux.Add("PATCH", "/shipments/:id/status", authMiddleware.ThenFunc(app.shipmentHandler.UpdateStatus))
	mux.Add("PATCH", "/shipments/:id/assign", adminMiddleware.ThenFunc(app.shipmentHandler.AssignDriver))
	mux.Put("/shipments/:id", authMiddleware.ThenFunc(app.shipmentHandler.UpdateShipment))
	mux.Del("/shipments/:id", authMiddleware.ThenFunc(app.shipmentHandler.CancelShipment))

	// Payments
	mux.Post("/payments/order", shipperMiddleware.ThenFunc(app.paymentHandler.CreateOrder))
	mux.Post("/payments/verify", shipperMiddleware.ThenFunc(app.paymentHandler.VerifyPayment))
	mux.Get("/payments/history", shipperMiddleware.ThenFunc(app.paymentHandler.PaymentHistory))

	// Drivers
	mux.Get("/drivers/available", adminMiddleware.ThenFunc(app.driverHandler.AvailableDrivers))
	mux.Get("/drivers/nearby", adminMiddleware.ThenFunc(app.driverHandler.NearbyDrivers))
	mux.Get("/drivers/me", driverMiddleware.ThenFunc(app.driverHandler.Profile))
	mux.Add("PATCH", "/drivers/availability", driverMiddleware.ThenFunc(app.driverHandler.SetAvailability))

	// Notifications
	mux.Get("/notifications/unread_count", authMiddleware.ThenFunc(app.notificationHandler.UnreadCount))
	mux.Get("/notifications", authMiddleware.ThenFunc(app.notificationHandler.GetNotifications))
	mux.Add("PATCH", "/notifications/:id/read", authMiddleware.ThenFunc(app.notificationHandler.MarkRead))

	// Live driver locations
	mux.Get("/ws/location", http.HandlerFunc(app.LocationWebSocketHandler))

	return mux
}
