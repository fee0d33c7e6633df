package models

import "time"

// Driver is a registered driver profile linked to a user account.
type Driver struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone,omitempty"`
	VehicleType   string      `json:"vehicle_type"`
	VehicleNumber string      `json:"vehicle_number"`
	LicenseNumber string      `json:"license_number"`
	Available     bool        `json:"available"`
	Statistics    DriverStats `json:"statistics"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type DriverStats struct {
	TotalDeliveries     int `json:"total_deliveries"`
	CompletedDeliveries int `json:"completed_deliveries"`
	CancelledDeliveries int `json:"cancelled_deliveries"`
}
