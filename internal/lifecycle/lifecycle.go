package lifecycle

// Shipment lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusPickedUp  = "picked-up"
	StatusInTransit = "in-transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// The legal graph is linear with a side-edge to cancelled from every
// non-terminal state. delivered and cancelled are terminal.
var transitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusAssigned:  {},
		StatusCancelled: {},
	},
	StatusAssigned: {
		StatusPickedUp:  {},
		StatusCancelled: {},
	},
	StatusPickedUp: {
		StatusInTransit: {},
		StatusCancelled: {},
	},
	StatusInTransit: {
		StatusDelivered: {},
		StatusCancelled: {},
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether the value belongs to the fixed six-status set.
func Valid(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition returns true when the lifecycle allows moving from current
// to next. There are no backward edges and no self edges; repeating the
// current status is a state error, not a no-op.
func CanTransition(current, next string) bool {
	allowed, ok := transitions[current]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

// IsTerminal reports whether no further transition is legal from the status.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}
