package pricing

import (
	"testing"

	"github.com/aayush-1o/truck/internal/models"
)

func TestCalculate(t *testing.T) {
	t.Run("standard truck no cargo value", func(t *testing.T) {
		p := Calculate(100, models.VehicleStandard, 0)
		if p.BasePrice != 1000 {
			t.Errorf("base price: got %d, want 1000", p.BasePrice)
		}
		if p.Insurance != 0 {
			t.Errorf("insurance: got %d, want 0", p.Insurance)
		}
		if p.Taxes != 50 {
			t.Errorf("taxes: got %d, want 50", p.Taxes)
		}
		if p.TotalPrice != 1050 {
			t.Errorf("total: got %d, want 1050", p.TotalPrice)
		}
	})

	t.Run("large truck with insured cargo", func(t *testing.T) {
		p := Calculate(125, models.VehicleLargeTruck, 5000)
		if p.BasePrice != 1500 || p.Taxes != 75 || p.Insurance != 50 {
			t.Errorf("unexpected breakdown: %+v", p)
		}
		if p.TotalPrice != 1625 {
			t.Errorf("total: got %d, want 1625", p.TotalPrice)
		}
	})

	t.Run("insurance capped at 500", func(t *testing.T) {
		p := Calculate(100, models.VehicleRefrigerated, 100000)
		if p.Insurance != 500 {
			t.Errorf("insurance: got %d, want cap of 500", p.Insurance)
		}
		if p.TotalPrice != 1800+500+90 {
			t.Errorf("total: got %d, want %d", p.TotalPrice, 1800+500+90)
		}
	})

	t.Run("unknown vehicle type falls back to default rate", func(t *testing.T) {
		p := Calculate(50, "Bicycle", 0)
		if p.BasePrice != 500 {
			t.Errorf("base price: got %d, want 500", p.BasePrice)
		}
	})

	t.Run("distance preserved in breakdown", func(t *testing.T) {
		p := Calculate(42.5, models.VehicleMiniTruck, 0)
		if p.DistanceKM != 42.5 {
			t.Errorf("distance: got %v, want 42.5", p.DistanceKM)
		}
	})
}
