package presence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func presenceServer(t *testing.T, fake *fakeStore) (*httptest.Server, *Tracker) {
	t.Helper()
	tracker := NewTracker(fake)
	fake.tracker = tracker
	hub := NewHub(tracker, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)
	return server, tracker
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestServeWritesOnlineAndRegisters(t *testing.T) {
	fake := newFakeStore()
	server, tracker := presenceServer(t, fake)

	conn := dial(t, server, "owner-1")
	defer conn.Close()

	waitFor(t, "online write", func() bool {
		return fake.writeCount() > 0
	})
	if fake.lastWrite(t).state != "online" {
		t.Errorf("Expected online write on connect, got %q", fake.lastWrite(t).state)
	}
	waitFor(t, "disconnect registration", func() bool {
		return tracker.Registered("owner-1")
	})
}

func TestAbruptCloseWritesOffline(t *testing.T) {
	fake := newFakeStore()
	server, tracker := presenceServer(t, fake)

	conn := dial(t, server, "owner-1")
	waitFor(t, "activation", func() bool {
		return tracker.Registered("owner-1")
	})

	// Kill the TCP connection without a close frame.
	conn.UnderlyingConn().Close()

	waitFor(t, "offline write", func() bool {
		return fake.writeCount() >= 2 && fake.lastWrite(t).state == "offline"
	})
	if tracker.Registered("owner-1") {
		t.Error("Expected registration consumed after ungraceful disconnect")
	}
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	fake := newFakeStore()
	server, tracker := presenceServer(t, fake)

	conn1 := dial(t, server, "owner-1")
	defer conn1.Close()
	waitFor(t, "first activation", func() bool {
		return tracker.Registered("owner-1")
	})

	conn2 := dial(t, server, "owner-1")
	defer conn2.Close()

	// The replaced connection's read loop exits here; its teardown must not
	// consume the registration the new connection just created.
	waitFor(t, "second activation", func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		count := 0
		for _, w := range fake.writes {
			if w.userID == "owner-1" && w.state == "online" {
				count++
			}
		}
		return count >= 2
	})
	time.Sleep(100 * time.Millisecond)

	if !tracker.Registered("owner-1") {
		t.Error("Expected registration to survive connection replacement")
	}
	fake.mu.Lock()
	last := fake.writes[len(fake.writes)-1]
	fake.mu.Unlock()
	if last.userID == "owner-1" && last.state == "offline" {
		t.Error("Replaced connection wrote offline while the new one is open")
	}

	// The surviving connection's real disconnect still lands.
	conn2.UnderlyingConn().Close()
	waitFor(t, "offline write after real disconnect", func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		for _, w := range fake.writes {
			if w.userID == "owner-1" && w.state == "offline" {
				return true
			}
		}
		return false
	})
}

func TestGracefulDeactivateBeatsConnectionLoss(t *testing.T) {
	fake := newFakeStore()
	server, tracker := presenceServer(t, fake)

	conn := dial(t, server, "owner-1")
	waitFor(t, "activation", func() bool {
		return tracker.Registered("owner-1")
	})

	if err := tracker.Deactivate(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	offlineWrites := fake.writeCount()

	conn.Close()

	// Give the read loop time to exit; ConnectionLost must find nothing.
	time.Sleep(100 * time.Millisecond)
	if fake.writeCount() != offlineWrites {
		t.Errorf("Expected no extra write after graceful sign-out, got %d total", fake.writeCount())
	}
}
