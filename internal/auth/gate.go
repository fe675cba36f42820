package auth

import "sync"

type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Event is delivered to gate subscribers. UserID is set on authenticated
// events and on the unauthenticated event that follows a sign-out, so a
// subscriber can tear down per-user state.
type Event struct {
	State  State
	UserID string
}

// Gate tracks auth state and notifies subscribers of changes. Subscribe
// delivers the current state once, immediately, before any change events;
// the returned function releases the subscription and must be called when
// the subscriber is torn down.
type Gate struct {
	mu      sync.Mutex
	current Event
	subs    map[int]func(Event)
	nextID  int
}

func NewGate() *Gate {
	return &Gate{
		current: Event{State: StateUnknown},
		subs:    make(map[int]func(Event)),
	}
}

func (g *Gate) Subscribe(fn func(Event)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	current := g.current
	g.mu.Unlock()

	fn(current)

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gate) Current() Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

func (g *Gate) SetAuthenticated(userID string) {
	g.publish(Event{State: StateAuthenticated, UserID: userID})
}

func (g *Gate) SetUnauthenticated(userID string) {
	g.publish(Event{State: StateUnauthenticated, UserID: userID})
}

func (g *Gate) publish(ev Event) {
	g.mu.Lock()
	g.current = ev
	fns := make([]func(Event), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may call back into the
	// gate without deadlocking.
	for _, fn := range fns {
		fn(ev)
	}
}
