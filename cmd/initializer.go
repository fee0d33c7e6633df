package main

import (
	"database/sql"
	"log"
	"net/http"

	"firebase.google.com/go/messaging"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/aayush-1o/truck/internal/config"
	"github.com/aayush-1o/truck/internal/handlers"
	"github.com/aayush-1o/truck/internal/repositories"
	"github.com/aayush-1o/truck/internal/services"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	cfg      config.Config
	db       *sql.DB

	shipmentHandler     *handlers.ShipmentHandler
	paymentHandler      *handlers.PaymentHandler
	driverHandler       *handlers.DriverHandler
	notificationHandler *handlers.NotificationHandler

	locationManager *LocationManager
	driverLocator   *repositories.DriverLocator
}

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, fcm *messaging.Client, errorLog, infoLog *log.Logger) (*application, error) {
	shipmentRepo := &repositories.ShipmentRepository{DB: db}
	paymentRepo := &repositories.PaymentRepository{DB: db}
	driverRepo := &repositories.DriverRepository{DB: db}
	notificationRepo := &repositories.NotificationRepository{DB: db}
	driverLocator := repositories.NewDriverLocator(rdb)

	notificationService := &services.NotificationService{Store: notificationRepo, FCM: fcm}
	geocoding := services.NewGeocodingService(services.GeocodingConfig{
		APIKey: cfg.OpenRouteService.APIKey,
		Cache:  rdb,
	})
	razorpay, err := services.NewRazorpayService(services.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
	})
	if err != nil {
		return nil, err
	}

	shipmentService := &services.ShipmentService{
		Shipments: shipmentRepo,
		Drivers:   driverRepo,
		Notifier:  notificationService,
		Distance:  geocoding,
	}
	paymentService := &services.PaymentService{
		Payments:  paymentRepo,
		Shipments: shipmentRepo,
		Gateway:   razorpay,
		Notifier:  notificationService,
	}
	driverService := &services.DriverService{
		Drivers: driverRepo,
		Locator: driverLocator,
	}

	return &application{
		errorLog:            errorLog,
		infoLog:             infoLog,
		cfg:                 cfg,
		db:                  db,
		shipmentHandler:     &handlers.ShipmentHandler{Service: shipmentService},
		paymentHandler:      &handlers.PaymentHandler{Service: paymentService},
		driverHandler:       &handlers.DriverHandler{Service: driverService},
		notificationHandler: &handlers.NotificationHandler{Service: notificationService},
		driverLocator:       driverLocator,
	}, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
