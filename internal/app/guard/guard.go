package guard

import "sync"

// ListingGuard serializes booking writes per listing so two concurrent
// requests for overlapping dates cannot both pass the availability check.
// The repository overlap constraint remains the backstop; the guard keeps
// the common case free of write conflicts.
type ListingGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewListingGuard() *ListingGuard {
	return &ListingGuard{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-listing mutex, creating it on first use.
func (g *ListingGuard) Lock(listingID string) {
	g.lockFor(listingID).Lock()
}

// Unlock releases the per-listing mutex.
func (g *ListingGuard) Unlock(listingID string) {
	g.lockFor(listingID).Unlock()
}

func (g *ListingGuard) lockFor(listingID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[listingID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[listingID] = lock
	}
	return lock
}
