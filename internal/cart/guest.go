package cart

import "sync"

// GuestStore holds the cart of a signed-out shopper in process memory.
// It is never persisted.
type GuestStore struct {
	mu    sync.Mutex
	items []Item
}

// NewGuestStore returns an empty guest cart.
func NewGuestStore() *GuestStore {
	return &GuestStore{}
}

func (g *GuestStore) indexOf(serviceID string) int {
	for i, it := range g.items {
		if it.ServiceID == serviceID {
			return i
		}
	}
	return -1
}

// Add increments an existing line by one, or appends item with quantity 1.
func (g *GuestStore) Add(item Item) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i := g.indexOf(item.ServiceID); i >= 0 {
		g.items[i].Quantity++
	} else {
		item.Quantity = 1
		g.items = append(g.items, item)
	}
	return g.snapshotLocked()
}

// SetQuantity sets the quantity of an existing line; qty <= 0 removes it.
// Unknown ids are ignored.
func (g *GuestStore) SetQuantity(serviceID string, qty int) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(serviceID)
	switch {
	case i < 0:
	case qty <= 0:
		g.items = append(g.items[:i], g.items[i+1:]...)
	default:
		g.items[i].Quantity = qty
	}
	return g.snapshotLocked()
}

// Remove deletes a line. Unknown ids are ignored.
func (g *GuestStore) Remove(serviceID string) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i := g.indexOf(serviceID); i >= 0 {
		g.items = append(g.items[:i], g.items[i+1:]...)
	}
	return g.snapshotLocked()
}

// Clear empties the cart.
func (g *GuestStore) Clear() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = nil
	return Snapshot{}
}

// Snapshot returns the current contents.
func (g *GuestStore) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *GuestStore) snapshotLocked() Snapshot {
	return NewSnapshot(g.items)
}
