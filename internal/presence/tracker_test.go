package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordedWrite struct {
	userID string
	state  string
	// registeredDuringWrite captures whether the disconnect registration
	// existed at the moment the write was issued.
	registeredDuringWrite bool
}

type fakeStore struct {
	mu      sync.Mutex
	writes  []recordedWrite
	failFor map[string]error
	tracker *Tracker
}

func newFakeStore() *fakeStore {
	return &fakeStore{failFor: make(map[string]error)}
}

func (f *fakeStore) Set(ctx context.Context, userID, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	registered := false
	if f.tracker != nil {
		registered = f.tracker.Registered(userID)
	}
	f.writes = append(f.writes, recordedWrite{userID: userID, state: state, registeredDuringWrite: registered})
	return f.failFor[userID]
}

func (f *fakeStore) lastWrite(t *testing.T) recordedWrite {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		t.Fatal("Expected at least one presence write")
	}
	return f.writes[len(f.writes)-1]
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func TestActivateWritesOnlineBeforeRegistering(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)
	fake.tracker = tracker

	tracker.Activate(context.Background(), "owner-1")

	write := fake.lastWrite(t)
	if write.state != "online" {
		t.Errorf("Expected online write, got %q", write.state)
	}
	if write.registeredDuringWrite {
		t.Error("Expected disconnect registration to happen after the online write, not before")
	}
	if !tracker.Registered("owner-1") {
		t.Error("Expected a disconnect registration after activation")
	}
}

func TestActivateProceedsWhenOnlineWriteFails(t *testing.T) {
	fake := newFakeStore()
	fake.failFor["owner-1"] = errors.New("connection refused")
	tracker := NewTracker(fake)

	tracker.Activate(context.Background(), "owner-1")

	if !tracker.Registered("owner-1") {
		t.Error("Expected registration despite failed online write")
	}
}

func TestConnectionLostWritesOffline(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)

	tracker.Activate(context.Background(), "owner-1")
	tracker.ConnectionLost(context.Background(), "owner-1")

	write := fake.lastWrite(t)
	if write.state != "offline" {
		t.Errorf("Expected offline write after connection loss, got %q", write.state)
	}
	if tracker.Registered("owner-1") {
		t.Error("Expected registration to be consumed by the disconnect write")
	}
}

func TestDeactivateReleasesRegistration(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)

	tracker.Activate(context.Background(), "owner-1")
	if err := tracker.Deactivate(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	write := fake.lastWrite(t)
	if write.state != "offline" {
		t.Errorf("Expected offline write on sign-out, got %q", write.state)
	}

	// A later drop of the same connection must not write again.
	before := fake.writeCount()
	tracker.ConnectionLost(context.Background(), "owner-1")
	if fake.writeCount() != before {
		t.Error("Expected ConnectionLost after Deactivate to be a no-op")
	}
}

func TestConnectionLostWithoutRegistrationIsNoop(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)

	tracker.ConnectionLost(context.Background(), "owner-1")

	if fake.writeCount() != 0 {
		t.Errorf("Expected no writes, got %d", fake.writeCount())
	}
}

func TestReactivationReplacesRegistration(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)

	tracker.Activate(context.Background(), "owner-1")
	tracker.Activate(context.Background(), "owner-1")

	// One registration total: a single connection loss consumes it and a
	// second one is a no-op.
	tracker.ConnectionLost(context.Background(), "owner-1")
	before := fake.writeCount()
	tracker.ConnectionLost(context.Background(), "owner-1")
	if fake.writeCount() != before {
		t.Error("Expected a single pending registration per user")
	}
}

func TestShutdownWritesAllPendingOffline(t *testing.T) {
	fake := newFakeStore()
	tracker := NewTracker(fake)

	tracker.Activate(context.Background(), "owner-1")
	tracker.Activate(context.Background(), "owner-2")
	if err := tracker.Deactivate(context.Background(), "owner-2"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	tracker.Shutdown(context.Background())

	offline := make(map[string]int)
	fake.mu.Lock()
	for _, w := range fake.writes {
		if w.state == "offline" {
			offline[w.userID]++
		}
	}
	fake.mu.Unlock()

	if offline["owner-1"] != 1 {
		t.Errorf("Expected one offline write for owner-1 at shutdown, got %d", offline["owner-1"])
	}
	if offline["owner-2"] != 1 {
		t.Errorf("Expected owner-2 to stay with its sign-out write only, got %d", offline["owner-2"])
	}
	if tracker.Registered("owner-1") {
		t.Error("Expected all registrations released after shutdown")
	}
}
