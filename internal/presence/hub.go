package presence

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Metrics is the slice of the metrics collector the hub needs.
type Metrics interface {
	RecordPresenceConnect()
	RecordPresenceDisconnect()
}

// Hub owns one websocket connection per signed-in owner. The connection is
// the liveness signal: while it is open the owner is online, and the read
// loop ending without a prior Deactivate counts as an ungraceful disconnect
// and fires the tracker's registered offline write.
type Hub struct {
	tracker  *Tracker
	metrics  Metrics
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub(tracker *Tracker, metrics Metrics) *Hub {
	return &Hub{
		tracker: tracker,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*websocket.Conn),
	}
}

// Serve upgrades the request and tracks presence for userID until the
// connection drops. A second connection for the same user replaces the
// first, mirroring the at-most-one-registration rule in the tracker.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Presence upgrade for %s: %v", userID, err)
		return
	}

	h.mu.Lock()
	if prev, ok := h.conns[userID]; ok {
		prev.Close()
	}
	h.conns[userID] = conn
	h.mu.Unlock()

	h.tracker.Activate(r.Context(), userID)
	if h.metrics != nil {
		h.metrics.RecordPresenceConnect()
	}

	go h.writePump(conn)
	h.readPump(conn, userID)
}

func (h *Hub) readPump(conn *websocket.Conn, userID string) {
	defer func() {
		h.mu.Lock()
		current := h.conns[userID] == conn
		if current {
			delete(h.conns, userID)
		}
		h.mu.Unlock()
		conn.Close()

		// Only the connection still on record gets to fire the disconnect
		// write. A replaced connection's exit must not consume the
		// registration its successor just created.
		if current {
			// The request context is gone once the connection is; the
			// offline write must still land.
			h.tracker.ConnectionLost(context.Background(), userID)
		}
		if h.metrics != nil {
			h.metrics.RecordPresenceDisconnect()
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Presence read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Presence connection for %s closed: %v", userID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}

// Disconnect closes the user's connection, if any. Called on sign-out after
// the tracker has already deactivated, so the read loop's ConnectionLost
// finds no registration and the offline record stands.
func (h *Hub) Disconnect(userID string) {
	h.mu.Lock()
	conn, ok := h.conns[userID]
	delete(h.conns, userID)
	h.mu.Unlock()

	if ok {
		conn.Close()
	}
}

// Close drops every connection; used on server shutdown after the tracker's
// Shutdown pass has written everyone offline.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*websocket.Conn)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
