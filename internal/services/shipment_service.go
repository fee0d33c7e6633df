package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/aayush-1o/truck/internal/lifecycle"
	"github.com/aayush-1o/truck/internal/models"
	"github.com/aayush-1o/truck/internal/pricing"
)

// ShipmentStore is the persistence contract the lifecycle manager needs.
type ShipmentStore interface {
	Create(ctx context.Context, s models.Shipment) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Shipment, error)
	GetByTrackingID(ctx context.Context, trackingID string) (models.Shipment, error)
	List(ctx context.Context, f models.ShipmentFilter) ([]models.Shipment, error)
	UpdateStatus(ctx context.Context, shipmentID int64, nextStatus string, location *models.Coordinates, note string) error
	AssignDriver(ctx context.Context, shipmentID, driverID int64, note string) error
	UpdateDetails(ctx context.Context, shipmentID int64, upd models.ShipmentUpdate) error
	SetPaymentStatus(ctx context.Context, shipmentID int64, paymentStatus string) error
}

// DriverStore is the driver directory contract.
type DriverStore interface {
	GetByID(ctx context.Context, id int64) (models.Driver, error)
	GetByUserID(ctx context.Context, userID int64) (models.Driver, error)
	RecordAssignment(ctx context.Context, driverID int64) error
	RecordDelivery(ctx context.Context, driverID int64) error
	RecordCancellation(ctx context.Context, driverID int64) error
}

// Notifier is a fire-and-forget notification sink. Implementations swallow
// their own failures; callers never roll back on a failed notification.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message, kind string, shipmentID int64)
}

// DistanceEstimator returns a driving distance in kilometers between two
// address strings. Implementations never fail; they fall back to a fixed
// default distance instead.
type DistanceEstimator interface {
	DistanceKM(ctx context.Context, pickupAddress, deliveryAddress string) float64
}

// ShipmentService is the single authority for shipment status transitions
// and the audit trail they produce.
type ShipmentService struct {
	Shipments ShipmentStore
	Drivers   DriverStore
	Notifier  Notifier
	Distance  DistanceEstimator
}

// CreateShipmentInput carries the fields a shipper submits for a new shipment.
type CreateShipmentInput struct {
	Pickup     models.ShipmentLocation
	Delivery   models.ShipmentLocation
	Cargo      models.Cargo
	PickupDate time.Time
	Notes      string
	// Price overrides the computed total when positive.
	Price int
}

// CreateShipment registers a new shipment in pending state with one initial
// history entry. Pricing is computed once here and never recomputed.
func (s *ShipmentService) CreateShipment(ctx context.Context, actor models.Principal, in CreateShipmentInput) (models.Shipment, error) {
	if !lifecycle.Allowed(lifecycle.ActionCreate, actor.Role, lifecycle.RelAny) {
		return models.Shipment{}, models.ErrUnauthorized
	}
	if strings.TrimSpace(in.Pickup.Address) == "" || strings.TrimSpace(in.Delivery.Address) == "" {
		return models.Shipment{}, errors.New("pickup and delivery addresses are required")
	}
	if in.Cargo.Weight <= 0 {
		return models.Shipment{}, errors.New("cargo weight must be positive")
	}
	if !models.ValidVehicleType(in.Cargo.VehicleType) {
		return models.Shipment{}, errors.New("invalid vehicle type")
	}

	distance := s.Distance.DistanceKM(ctx, in.Pickup.Address, in.Delivery.Address)
	price := pricing.Calculate(distance, in.Cargo.VehicleType, in.Cargo.Value)
	if in.Price > 0 {
		price.TotalPrice = in.Price
	}

	pickupDate := in.PickupDate
	if pickupDate.IsZero() {
		pickupDate = time.Now()
	}

	shipment := models.Shipment{
		TrackingID: generateTrackingID(),
		ShipperID:  actor.UserID,
		Pickup:     in.Pickup,
		Delivery:   in.Delivery,
		Cargo:      in.Cargo,
		Pricing:    price,
		PickupDate: pickupDate,
		Notes:      in.Notes,
	}

	id, err := s.Shipments.Create(ctx, shipment)
	if err != nil {
		return models.Shipment{}, err
	}
	return s.Shipments.GetByID(ctx, id)
}

// RequestTransition validates and applies one status change on behalf of the
// acting principal. Assignment has its own operation; requesting "assigned"
// here is a state error because no driver accompanies the request.
func (s *ShipmentService) RequestTransition(ctx context.Context, actor models.Principal, shipmentID int64, next string, location *models.Coordinates, note string) (models.Shipment, error) {
	if !lifecycle.Valid(next) {
		return models.Shipment{}, models.ErrUnknownStatus
	}

	shipment, err := s.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}

	if next == lifecycle.StatusPending || next == lifecycle.StatusAssigned {
		return models.Shipment{}, &models.InvalidTransitionError{From: shipment.Status, To: next}
	}

	action := lifecycle.ActionAdvance
	if next == lifecycle.StatusCancelled {
		action = lifecycle.ActionCancel
	}

	rel := s.relation(ctx, actor, shipment)
	if !lifecycle.Allowed(action, actor.Role, rel) {
		return models.Shipment{}, models.ErrUnauthorized
	}

	// Re-validated under the row lock; a concurrent winner turns this into
	// an InvalidTransitionError for the loser.
	if err := s.Shipments.UpdateStatus(ctx, shipmentID, next, location, note); err != nil {
		return models.Shipment{}, err
	}

	s.afterTransition(ctx, shipment, next)

	return s.Shipments.GetByID(ctx, shipmentID)
}

// AssignDriver moves a pending shipment to assigned and denormalizes the
// selected driver onto it. Admin only; the driver must exist and be available.
func (s *ShipmentService) AssignDriver(ctx context.Context, actor models.Principal, shipmentID, driverID int64) (models.Shipment, error) {
	if !lifecycle.Allowed(lifecycle.ActionAssign, actor.Role, lifecycle.RelAny) {
		return models.Shipment{}, models.ErrUnauthorized
	}

	shipment, err := s.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}

	driver, err := s.Drivers.GetByID(ctx, driverID)
	if err != nil {
		return models.Shipment{}, err
	}
	if !driver.Available {
		return models.Shipment{}, models.ErrDriverUnavailable
	}

	note := fmt.Sprintf("Assigned to driver: %s", driver.Name)
	if err := s.Shipments.AssignDriver(ctx, shipmentID, driverID, note); err != nil {
		return models.Shipment{}, err
	}

	if err := s.Drivers.RecordAssignment(ctx, driverID); err != nil {
		log.Printf("record assignment for driver %d: %v", driverID, err)
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, driver.UserID, "New Shipment Assigned",
			fmt.Sprintf("You have been assigned to shipment %s. Check your dashboard.", shipment.TrackingID),
			models.NotifyInfo, shipmentID)
		s.Notifier.Notify(ctx, shipment.ShipperID, "Driver Assigned",
			fmt.Sprintf("A driver has been assigned to your shipment %s.", shipment.TrackingID),
			models.NotifySuccess, shipmentID)
	}

	return s.Shipments.GetByID(ctx, shipmentID)
}

// Cancel moves the shipment to cancelled unless it is already terminal.
func (s *ShipmentService) Cancel(ctx context.Context, actor models.Principal, shipmentID int64, note string) (models.Shipment, error) {
	return s.RequestTransition(ctx, actor, shipmentID, lifecycle.StatusCancelled, nil, note)
}

// UpdateDetails edits route/cargo fields of a pending shipment.
func (s *ShipmentService) UpdateDetails(ctx context.Context, actor models.Principal, shipmentID int64, upd models.ShipmentUpdate) (models.Shipment, error) {
	shipment, err := s.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}
	if !lifecycle.Allowed(lifecycle.ActionEdit, actor.Role, s.relation(ctx, actor, shipment)) {
		return models.Shipment{}, models.ErrUnauthorized
	}
	if upd.Cargo != nil {
		if upd.Cargo.Weight <= 0 {
			return models.Shipment{}, errors.New("cargo weight must be positive")
		}
		if !models.ValidVehicleType(upd.Cargo.VehicleType) {
			return models.Shipment{}, errors.New("invalid vehicle type")
		}
	}
	if err := s.Shipments.UpdateDetails(ctx, shipmentID, upd); err != nil {
		return models.Shipment{}, err
	}
	return s.Shipments.GetByID(ctx, shipmentID)
}

// Get returns a shipment when the principal is a party to it.
func (s *ShipmentService) Get(ctx context.Context, actor models.Principal, shipmentID int64) (models.Shipment, error) {
	shipment, err := s.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, err
	}
	if !lifecycle.Allowed(lifecycle.ActionView, actor.Role, s.relation(ctx, actor, shipment)) {
		return models.Shipment{}, models.ErrUnauthorized
	}
	return shipment, nil
}

// Track returns the public tracking projection by tracking id.
func (s *ShipmentService) Track(ctx context.Context, trackingID string) (models.Shipment, error) {
	return s.Shipments.GetByTrackingID(ctx, trackingID)
}

// List returns shipments visible to the principal: shippers see their own,
// drivers see their assignments, admins see everything.
func (s *ShipmentService) List(ctx context.Context, actor models.Principal, status string, limit int) ([]models.Shipment, error) {
	filter := models.ShipmentFilter{Status: status, Limit: limit}
	switch actor.Role {
	case models.RoleShipper:
		filter.ShipperID = &actor.UserID
	case models.RoleDriver:
		driver, err := s.Drivers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, models.ErrDriverNotFound) {
				return nil, nil
			}
			return nil, err
		}
		filter.DriverID = &driver.ID
	case models.RoleAdmin:
	default:
		return nil, models.ErrUnauthorized
	}
	return s.Shipments.List(ctx, filter)
}

func (s *ShipmentService) relation(ctx context.Context, actor models.Principal, shipment models.Shipment) lifecycle.Relationship {
	var driverID int64
	if actor.Role == models.RoleDriver {
		driver, err := s.Drivers.GetByUserID(ctx, actor.UserID)
		if err == nil {
			driverID = driver.ID
		}
	}
	return lifecycle.Relation(actor, shipment, driverID)
}

// afterTransition fires the best-effort side effects of a committed
// transition. The transition itself is already durable at this point.
func (s *ShipmentService) afterTransition(ctx context.Context, before models.Shipment, next string) {
	switch next {
	case lifecycle.StatusDelivered:
		if before.DriverID != nil {
			if err := s.Drivers.RecordDelivery(ctx, *before.DriverID); err != nil {
				log.Printf("record delivery for driver %d: %v", *before.DriverID, err)
			}
		}
		if s.Notifier != nil {
			s.Notifier.Notify(ctx, before.ShipperID, "Shipment Delivered",
				fmt.Sprintf("Your shipment %s has been delivered.", before.TrackingID),
				models.NotifySuccess, before.ID)
		}
	case lifecycle.StatusCancelled:
		if before.DriverID != nil {
			if err := s.Drivers.RecordCancellation(ctx, *before.DriverID); err != nil {
				log.Printf("record cancellation for driver %d: %v", *before.DriverID, err)
			}
			if s.Notifier != nil {
				driver, err := s.Drivers.GetByID(ctx, *before.DriverID)
				if err == nil {
					s.Notifier.Notify(ctx, driver.UserID, "Shipment Cancelled",
						fmt.Sprintf("Shipment %s has been cancelled.", before.TrackingID),
						models.NotifyWarning, before.ID)
				}
			}
		}
	}
}

// generateTrackingID builds a human-readable tracking identifier:
// SH + last six digits of unix millis + four random digits.
func generateTrackingID() string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("SH%s%04d", millis, 1000+rand.Intn(9000))
}
