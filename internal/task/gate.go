package task

import "sync"

// Category distinguishes the kinds of long-running generation work a user
// can have in flight.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
)

type gateKey struct {
	userID   int64
	category Category
}

// Gate is the single-flight guard for generation requests: at most one task
// per (user, category) may be in flight at a time. It is constructed once at
// process start and shared by handlers, never as package state.
type Gate struct {
	mu     sync.Mutex
	inUse  map[gateKey]struct{}
}

// NewGate returns an empty admission gate.
func NewGate() *Gate {
	return &Gate{inUse: make(map[gateKey]struct{})}
}

// TryAcquire marks the (user, category) slot busy and returns true, or
// returns false if a task is already in flight for that slot.
func (g *Gate) TryAcquire(userID int64, category Category) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := gateKey{userID: userID, category: category}
	if _, busy := g.inUse[key]; busy {
		return false
	}
	g.inUse[key] = struct{}{}
	return true
}

// Release clears the (user, category) slot. It is idempotent and safe to
// call on a slot that was never acquired, so callers can defer it on every
// exit path. A leaked slot would block the user until restart.
func (g *Gate) Release(userID int64, category Category) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inUse, gateKey{userID: userID, category: category})
}

// InFlight reports whether a task is currently admitted for the slot.
func (g *Gate) InFlight(userID int64, category Category) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inUse[gateKey{userID: userID, category: category}]
	return busy
}
