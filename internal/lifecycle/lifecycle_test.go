package lifecycle

import "testing"

func TestCanTransitionLinearPath(t *testing.T) {
	path := []string{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionNoBackwardEdges(t *testing.T) {
	path := []string{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered}
	for i := range path {
		for j := 0; j <= i; j++ {
			if CanTransition(path[i], path[j]) {
				t.Errorf("unexpected backward transition %s -> %s", path[i], path[j])
			}
		}
	}
}

func TestCanTransitionSkipsForbidden(t *testing.T) {
	if CanTransition(StatusPending, StatusPickedUp) {
		t.Error("pending must not skip directly to picked-up")
	}
	if CanTransition(StatusAssigned, StatusDelivered) {
		t.Error("assigned must not skip directly to delivered")
	}
}

func TestCancelReachableFromNonTerminal(t *testing.T) {
	for _, from := range []string{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit} {
		if !CanTransition(from, StatusCancelled) {
			t.Errorf("expected %s -> cancelled to be allowed", from)
		}
	}
	if CanTransition(StatusDelivered, StatusCancelled) {
		t.Error("delivered shipments must not be cancellable")
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	all := []string{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled}
	for _, terminal := range []string{StatusDelivered, StatusCancelled} {
		if !IsTerminal(terminal) {
			t.Errorf("expected %s to be terminal", terminal)
		}
		for _, next := range all {
			if CanTransition(terminal, next) {
				t.Errorf("unexpected transition out of terminal state %s -> %s", terminal, next)
			}
		}
	}
}

func TestValidRejectsUnknownStatus(t *testing.T) {
	for _, status := range []string{"", "shipped", "PENDING", "in_transit"} {
		if Valid(status) {
			t.Errorf("expected %q to be rejected", status)
		}
	}
	if !Valid(StatusPending) || !Valid(StatusCancelled) {
		t.Error("expected members of the status set to be valid")
	}
}
