package models

import "time"

// Vehicle types a shipment can request. Rates per kilometer live in the
// pricing package.
const (
	VehicleMiniTruck    = "Mini Truck (7ft)"
	VehicleStandard     = "Standard Truck (14ft)"
	VehicleLargeTruck   = "Large Truck (19ft)"
	VehicleContainer    = "Container (20ft)"
	VehicleRefrigerated = "Refrigerated"
)

// ValidVehicleType reports whether v is one of the supported vehicle types.
func ValidVehicleType(v string) bool {
	switch v {
	case VehicleMiniTruck, VehicleStandard, VehicleLargeTruck, VehicleContainer, VehicleRefrigerated:
		return true
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ShipmentLocation is one end of the route.
type ShipmentLocation struct {
	Address     string       `json:"address"`
	City        string       `json:"city,omitempty"`
	Pincode     string       `json:"pincode,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Cargo struct {
	Weight      float64 `json:"weight"`
	VehicleType string  `json:"vehicle_type"`
	Description string  `json:"description,omitempty"`
	Value       float64 `json:"value"`
}

// Pricing is computed once at shipment creation and never recomputed.
// All amounts are whole rupees.
type Pricing struct {
	BasePrice  int     `json:"base_price"`
	Insurance  int     `json:"insurance"`
	Taxes      int     `json:"taxes"`
	TotalPrice int     `json:"total_price"`
	DistanceKM float64 `json:"distance_km"`
}

// StatusHistoryEntry is one record of the append-only audit trail.
type StatusHistoryEntry struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Location  *Coordinates `json:"location,omitempty"`
	Note      string       `json:"note,omitempty"`
}

type Shipment struct {
	ID                    int64                `json:"id"`
	TrackingID            string               `json:"tracking_id"`
	ShipperID             int64                `json:"shipper_id"`
	DriverID              *int64               `json:"driver_id,omitempty"`
	Pickup                ShipmentLocation     `json:"pickup"`
	Delivery              ShipmentLocation     `json:"delivery"`
	Cargo                 Cargo                `json:"cargo"`
	Status                string               `json:"status"`
	PaymentStatus         string               `json:"payment_status"`
	Pricing               Pricing              `json:"pricing"`
	PickupDate            time.Time            `json:"pickup_date"`
	EstimatedDeliveryDate *time.Time           `json:"estimated_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time           `json:"actual_delivery_date,omitempty"`
	Notes                 string               `json:"notes,omitempty"`
	StatusHistory         []StatusHistoryEntry `json:"status_history,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// ShipmentFilter narrows a listing. Nil pointer fields are ignored.
type ShipmentFilter struct {
	ShipperID *int64
	DriverID  *int64
	Status    string
	Limit     int
}

// ShipmentUpdate carries an edit of a pending shipment. Nil fields keep
// their current value.
type ShipmentUpdate struct {
	Pickup     *ShipmentLocation `json:"pickup,omitempty"`
	Delivery   *ShipmentLocation `json:"delivery,omitempty"`
	Cargo      *Cargo            `json:"cargo,omitempty"`
	PickupDate *time.Time        `json:"pickup_date,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
}
