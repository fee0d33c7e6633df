package lifecycle

import (
	"testing"

	"github.com/aayush-1o/truck/internal/models"
)

func TestAllowedTable(t *testing.T) {
	cases := []struct {
		name   string
		action string
		role   string
		rel    Relationship
		want   bool
	}{
		{"shipper creates", ActionCreate, models.RoleShipper, RelNone, true},
		{"driver cannot create", ActionCreate, models.RoleDriver, RelNone, false},
		{"admin cannot create", ActionCreate, models.RoleAdmin, RelNone, false},

		{"admin assigns", ActionAssign, models.RoleAdmin, RelNone, true},
		{"shipper cannot assign own", ActionAssign, models.RoleShipper, RelOwner, false},
		{"driver cannot assign", ActionAssign, models.RoleDriver, RelAssignedDriver, false},

		{"assigned driver advances", ActionAdvance, models.RoleDriver, RelAssignedDriver, true},
		{"other driver cannot advance", ActionAdvance, models.RoleDriver, RelNone, false},
		{"admin advances any", ActionAdvance, models.RoleAdmin, RelNone, true},
		{"owner shipper cannot advance", ActionAdvance, models.RoleShipper, RelOwner, false},

		{"owner cancels", ActionCancel, models.RoleShipper, RelOwner, true},
		{"other shipper cannot cancel", ActionCancel, models.RoleShipper, RelNone, false},
		{"assigned driver cannot cancel", ActionCancel, models.RoleDriver, RelAssignedDriver, false},
		{"admin cancels", ActionCancel, models.RoleAdmin, RelNone, true},

		{"owner edits", ActionEdit, models.RoleShipper, RelOwner, true},
		{"driver cannot edit", ActionEdit, models.RoleDriver, RelAssignedDriver, false},

		{"assigned driver views", ActionView, models.RoleDriver, RelAssignedDriver, true},
		{"stranger cannot view", ActionView, models.RoleShipper, RelNone, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allowed(tc.action, tc.role, tc.rel); got != tc.want {
				t.Fatalf("Allowed(%s, %s, %d) = %v, want %v", tc.action, tc.role, tc.rel, got, tc.want)
			}
		})
	}
}

func TestRelation(t *testing.T) {
	driverID := int64(7)
	shipment := models.Shipment{ShipperID: 42, DriverID: &driverID}

	if rel := Relation(models.Principal{UserID: 42, Role: models.RoleShipper}, shipment, 0); rel != RelOwner {
		t.Errorf("expected owner relation, got %d", rel)
	}
	if rel := Relation(models.Principal{UserID: 99, Role: models.RoleShipper}, shipment, 0); rel != RelNone {
		t.Errorf("expected no relation for foreign shipper, got %d", rel)
	}
	if rel := Relation(models.Principal{UserID: 5, Role: models.RoleDriver}, shipment, 7); rel != RelAssignedDriver {
		t.Errorf("expected assigned-driver relation, got %d", rel)
	}
	if rel := Relation(models.Principal{UserID: 5, Role: models.RoleDriver}, shipment, 8); rel != RelNone {
		t.Errorf("expected no relation for unassigned driver, got %d", rel)
	}

	unassigned := models.Shipment{ShipperID: 42}
	if rel := Relation(models.Principal{UserID: 5, Role: models.RoleDriver}, unassigned, 7); rel != RelNone {
		t.Errorf("expected no relation on unassigned shipment, got %d", rel)
	}
}
