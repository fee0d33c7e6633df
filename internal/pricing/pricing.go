package pricing

import (
	"math"

	"github.com/aayush-1o/truck/internal/models"
)

// Base rates per km by vehicle type.
var ratePerKM = map[string]float64{
	models.VehicleMiniTruck:    8,
	models.VehicleStandard:     10,
	models.VehicleLargeTruck:   12,
	models.VehicleContainer:    15,
	models.VehicleRefrigerated: 18,
}

const (
	defaultRatePerKM = 10
	insuranceRate    = 0.01
	maxInsurance     = 500
	taxRate          = 0.05
)

// Calculate computes the price breakdown for a shipment. Insurance is 1% of
// the declared cargo value capped at 500; tax is 5% of the base price. The
// result is fixed at creation time and never recomputed on status change.
func Calculate(distanceKM float64, vehicleType string, cargoValue float64) models.Pricing {
	rate, ok := ratePerKM[vehicleType]
	if !ok {
		rate = defaultRatePerKM
	}

	base := distanceKM * rate
	insurance := math.Min(cargoValue*insuranceRate, maxInsurance)
	taxes := base * taxRate

	return models.Pricing{
		BasePrice:  int(math.Round(base)),
		Insurance:  int(math.Round(insurance)),
		Taxes:      int(math.Round(taxes)),
		TotalPrice: int(math.Round(base + insurance + taxes)),
		DistanceKM: distanceKM,
	}
}
