package lifecycle

import "github.com/aayush-1o/truck/internal/models"

// Actions a principal can request against a shipment.
const (
	ActionCreate  = "create"
	ActionAssign  = "assign"
	ActionAdvance = "advance"
	ActionCancel  = "cancel"
	ActionEdit    = "edit"
	ActionView    = "view"
)

// Relationship of the acting principal to the shipment.
type Relationship int

const (
	RelNone Relationship = iota
	RelOwner
	RelAssignedDriver
	// RelAny matches every relationship in the rule table.
	RelAny
)

// rules maps (action, role) to the relationships allowed to perform it.
// Evaluated once per operation instead of ad hoc checks per route.
var rules = map[string]map[string][]Relationship{
	ActionCreate: {
		models.RoleShipper: {RelAny},
	},
	ActionAssign: {
		models.RoleAdmin: {RelAny},
	},
	ActionAdvance: {
		models.RoleAdmin:  {RelAny},
		models.RoleDriver: {RelAssignedDriver},
	},
	ActionCancel: {
		models.RoleAdmin:   {RelAny},
		models.RoleShipper: {RelOwner},
	},
	ActionEdit: {
		models.RoleAdmin:   {RelAny},
		models.RoleShipper: {RelOwner},
	},
	ActionView: {
		models.RoleAdmin:   {RelAny},
		models.RoleShipper: {RelOwner},
		models.RoleDriver:  {RelAssignedDriver},
	},
}

// Allowed reports whether a principal with the given role and relationship
// to the shipment may perform the action.
func Allowed(action, role string, rel Relationship) bool {
	byRole, ok := rules[action]
	if !ok {
		return false
	}
	rels, ok := byRole[role]
	if !ok {
		return false
	}
	for _, allowed := range rels {
		if allowed == RelAny || allowed == rel {
			return true
		}
	}
	return false
}

// Relation derives the principal's relationship to a shipment. driverID is
// the principal's driver profile id, zero when the principal has none.
func Relation(actor models.Principal, shipment models.Shipment, driverID int64) Relationship {
	if actor.Role == models.RoleShipper && shipment.ShipperID == actor.UserID {
		return RelOwner
	}
	if actor.Role == models.RoleDriver && driverID != 0 && shipment.DriverID != nil && *shipment.DriverID == driverID {
		return RelAssignedDriver
	}
	return RelNone
}
