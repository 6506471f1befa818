// Package cart implements the dual-mode shopping cart: a local guest cart
// for signed-out shoppers and a backend-authoritative cart once signed in.
package cart

// Item is one line of the cart. UnitPrice is in minor currency units.
type Item struct {
	ServiceID      string `json:"id"`
	Name           string `json:"name"`
	UnitPrice      int64  `json:"price"`
	Quantity       int    `json:"quantity"`
	Category       string `json:"category,omitempty"`
	ProcessingTime string `json:"processingTime,omitempty"`
}

// Subtotal is UnitPrice × Quantity.
func (i Item) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Snapshot is an immutable, ordered set of cart items keyed by service id.
// The zero value is an empty cart.
type Snapshot struct {
	items []Item
}

// NewSnapshot builds a snapshot from items in order. Duplicate service ids
// are folded into the first occurrence and lines with quantity < 1 are dropped.
func NewSnapshot(items []Item) Snapshot {
	if len(items) == 0 {
		return Snapshot{}
	}
	out := make([]Item, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if pos, ok := index[it.ServiceID]; ok {
			out[pos].Quantity += it.Quantity
			continue
		}
		index[it.ServiceID] = len(out)
		out = append(out, it)
	}
	kept := out[:0]
	for _, it := range out {
		if it.Quantity >= 1 {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Snapshot{}
	}
	return Snapshot{items: kept}
}

// Items returns a copy of the lines in display order.
func (s Snapshot) Items() []Item {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len is the number of distinct services.
func (s Snapshot) Len() int { return len(s.items) }

// IsEmpty reports whether the cart has no lines.
func (s Snapshot) IsEmpty() bool { return len(s.items) == 0 }

// Get returns the line for serviceID.
func (s Snapshot) Get(serviceID string) (Item, bool) {
	for _, it := range s.items {
		if it.ServiceID == serviceID {
			return it, true
		}
	}
	return Item{}, false
}

// TotalItems is the sum of quantities.
func (s Snapshot) TotalItems() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of UnitPrice × Quantity.
func (s Snapshot) TotalPrice() int64 {
	var total int64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}
