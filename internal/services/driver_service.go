package services

import (
	"context"

	"github.com/aayush-1o/truck/internal/models"
)

// DriverDirectory extends DriverStore with the listing and availability
// operations the driver endpoints need.
type DriverDirectory interface {
	DriverStore
	ListAvailable(ctx context.Context, vehicleType string) ([]models.Driver, error)
	SetAvailability(ctx context.Context, driverID int64, available bool) error
}

// LiveLocator tracks last known driver positions.
type LiveLocator interface {
	Nearby(ctx context.Context, lat, lng, radiusKM float64) ([]int64, error)
}

// DriverService exposes the driver directory to admins and lets drivers
// manage their own availability.
type DriverService struct {
	Drivers DriverDirectory
	Locator LiveLocator
}

// ListAvailable returns available drivers, optionally filtered by vehicle
// type. Admin only.
func (s *DriverService) ListAvailable(ctx context.Context, actor models.Principal, vehicleType string) ([]models.Driver, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.ErrUnauthorized
	}
	return s.Drivers.ListAvailable(ctx, vehicleType)
}

// SetAvailability toggles the acting driver's own availability flag.
func (s *DriverService) SetAvailability(ctx context.Context, actor models.Principal, available bool) (models.Driver, error) {
	if actor.Role != models.RoleDriver {
		return models.Driver{}, models.ErrUnauthorized
	}
	driver, err := s.Drivers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return models.Driver{}, err
	}
	if err := s.Drivers.SetAvailability(ctx, driver.ID, available); err != nil {
		return models.Driver{}, err
	}
	driver.Available = available
	return driver, nil
}

// Profile returns the acting driver's own profile.
func (s *DriverService) Profile(ctx context.Context, actor models.Principal) (models.Driver, error) {
	if actor.Role != models.RoleDriver {
		return models.Driver{}, models.ErrUnauthorized
	}
	return s.Drivers.GetByUserID(ctx, actor.UserID)
}

// NearbyDrivers returns user ids of drivers whose last reported position is
// within radiusKM of the point. Admin only.
func (s *DriverService) NearbyDrivers(ctx context.Context, actor models.Principal, lat, lng, radiusKM float64) ([]int64, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.ErrUnauthorized
	}
	if radiusKM <= 0 {
		radiusKM = 10
	}
	return s.Locator.Nearby(ctx, lat, lng, radiusKM)
}
