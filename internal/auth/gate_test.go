package auth

import "testing"

func TestGateSubscribeFiresImmediately(t *testing.T) {
	gate := NewGate()

	var events []Event
	unsubscribe := gate.Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	if len(events) != 1 {
		t.Fatalf("Expected 1 immediate event, got %d", len(events))
	}
	if events[0].State != StateUnknown {
		t.Errorf("Expected initial state unknown, got %v", events[0].State)
	}
}

func TestGateDeliversTransitions(t *testing.T) {
	gate := NewGate()

	var events []Event
	unsubscribe := gate.Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	gate.SetAuthenticated("owner-1")
	gate.SetUnauthenticated("owner-1")

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[1].State != StateAuthenticated || events[1].UserID != "owner-1" {
		t.Errorf("Unexpected authenticated event: %+v", events[1])
	}
	if events[2].State != StateUnauthenticated || events[2].UserID != "owner-1" {
		t.Errorf("Unexpected unauthenticated event: %+v", events[2])
	}

	if gate.Current().State != StateUnauthenticated {
		t.Errorf("Expected current state unauthenticated, got %v", gate.Current().State)
	}
}

func TestGateSubscribeSeesCurrentState(t *testing.T) {
	gate := NewGate()
	gate.SetAuthenticated("owner-2")

	var first Event
	unsubscribe := gate.Subscribe(func(ev Event) {
		if first.State == StateUnknown && first.UserID == "" {
			first = ev
		}
	})
	defer unsubscribe()

	if first.State != StateAuthenticated || first.UserID != "owner-2" {
		t.Errorf("Expected immediate delivery of current state, got %+v", first)
	}
}

func TestGateUnsubscribeStopsDelivery(t *testing.T) {
	gate := NewGate()

	count := 0
	unsubscribe := gate.Subscribe(func(ev Event) {
		count++
	})

	gate.SetAuthenticated("owner-3")
	unsubscribe()
	gate.SetUnauthenticated("owner-3")

	if count != 2 {
		t.Errorf("Expected 2 deliveries (immediate + one change), got %d", count)
	}
}

func TestGateSubscriberMayReenter(t *testing.T) {
	gate := NewGate()

	unsubscribe := gate.Subscribe(func(ev Event) {
		// Reading current state from inside the callback must not deadlock.
		_ = gate.Current()
	})
	defer unsubscribe()

	gate.SetAuthenticated("owner-4")
}
