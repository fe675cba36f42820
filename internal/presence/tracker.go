// Package presence keeps a live online/offline record per shop owner. The
// record flips to offline even when the client vanishes: a disconnect write
// is registered at activation time and fired by the websocket hub when a
// connection drops without an explicit sign-out.
package presence

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/safar/go-shop-admin/internal/models"
)

// Store is the realtime presence primitive: set a state now. The
// disconnect-triggered write lives in the Tracker, which decides when a
// registered offline write fires.
type Store interface {
	Set(ctx context.Context, userID, state string) error
}

type Tracker struct {
	store Store

	mu sync.Mutex
	// pending holds at most one disconnect registration per user.
	// Re-activating replaces the prior registration.
	pending map[string]struct{}
}

func NewTracker(store Store) *Tracker {
	return &Tracker{
		store:   store,
		pending: make(map[string]struct{}),
	}
}

// Activate writes the online record and then registers the disconnect write.
// The online write comes strictly first: registering first could let a
// racing disconnect fire before the online write lands and leave the record
// permanently offline. The online write itself is best-effort; a failure is
// logged and activation proceeds.
func (t *Tracker) Activate(ctx context.Context, userID string) {
	if err := t.store.Set(ctx, userID, models.PresenceOnline); err != nil {
		log.Printf("Presence online write for %s: %v", userID, err)
	}

	t.mu.Lock()
	t.pending[userID] = struct{}{}
	t.mu.Unlock()
}

// Deactivate is the explicit sign-out path: write offline and release the
// disconnect registration so a later drop of the same connection cannot
// overwrite the record.
func (t *Tracker) Deactivate(ctx context.Context, userID string) error {
	t.mu.Lock()
	delete(t.pending, userID)
	t.mu.Unlock()

	if err := t.store.Set(ctx, userID, models.PresenceOffline); err != nil {
		return fmt.Errorf("presence offline write: %w", err)
	}
	return nil
}

// ConnectionLost fires the registered disconnect write, if one is still
// pending. After a graceful Deactivate the registration is gone and this is
// a no-op.
func (t *Tracker) ConnectionLost(ctx context.Context, userID string) {
	t.mu.Lock()
	_, registered := t.pending[userID]
	delete(t.pending, userID)
	t.mu.Unlock()

	if !registered {
		return
	}

	if err := t.store.Set(ctx, userID, models.PresenceOffline); err != nil {
		log.Printf("Presence disconnect write for %s: %v", userID, err)
	}
}

// Registered reports whether a disconnect write is pending for the user.
func (t *Tracker) Registered(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[userID]
	return ok
}

// Shutdown is the graceful-exit hook: every user with a pending registration
// is written offline before the process terminates.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.mu.Lock()
	users := make([]string, 0, len(t.pending))
	for userID := range t.pending {
		users = append(users, userID)
	}
	t.pending = make(map[string]struct{})
	t.mu.Unlock()

	for _, userID := range users {
		if err := t.store.Set(ctx, userID, models.PresenceOffline); err != nil {
			log.Printf("Presence shutdown write for %s: %v", userID, err)
		}
	}
}
