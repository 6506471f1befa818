package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vastram/internal/logging"
)

// Mode selects which store is authoritative.
type Mode int

const (
	ModeGuest Mode = iota
	ModeAuthenticated
)

func (m Mode) String() string {
	if m == ModeAuthenticated {
		return "authenticated"
	}
	return "guest"
}

// User-facing messages recorded in Err().
const (
	MsgLoadFailed   = "Failed to load cart items"
	MsgAddFailed    = "Failed to add item to cart"
	MsgRemoveFailed = "Failed to remove item from cart"
	MsgUpdateFailed = "Failed to update cart item"
	MsgClearFailed  = "Failed to clear cart"
)

var (
	// ErrNotAuthenticated is returned by RequireAuthenticated in guest mode.
	ErrNotAuthenticated = errors.New("cart: not signed in")

	// ErrSessionChanged is returned when a backend call completes after the
	// session changed; its result is discarded.
	ErrSessionChanged = errors.New("cart: session changed while request was in flight")
)

// Gateway is the backend cart resource. Every call returns the full cart.
type Gateway interface {
	GetCart(ctx context.Context) (Snapshot, error)
	AddItem(ctx context.Context, serviceID string, quantity int) (Snapshot, error)
	UpdateItem(ctx context.Context, serviceID string, quantity int) (Snapshot, error)
	RemoveItem(ctx context.Context, serviceID string) (Snapshot, error)
	ClearCart(ctx context.Context) error
}

// Controller routes cart operations to the guest store or the backend
// depending on whether a user is signed in.
//
// Backend calls run without holding the lock and their results are applied
// in completion order. Each mode transition bumps an epoch; a completion
// from an older epoch is dropped.
type Controller struct {
	mu      sync.Mutex
	gateway Gateway
	guest   *GuestStore
	mode    Mode
	epoch   uint64
	remote  Snapshot
	loading int
	errMsg  string
}

// NewController starts in guest mode.
func NewController(gateway Gateway) *Controller {
	return &Controller{
		gateway: gateway,
		guest:   NewGuestStore(),
	}
}

// Snapshot returns the current cart.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() Snapshot {
	if c.mode == ModeAuthenticated {
		return c.remote
	}
	return c.guest.Snapshot()
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RequireAuthenticated returns ErrNotAuthenticated in guest mode.
func (c *Controller) RequireAuthenticated() error {
	if c.Mode() != ModeAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

func (c *Controller) TotalItems() int   { return c.Snapshot().TotalItems() }
func (c *Controller) TotalPrice() int64 { return c.Snapshot().TotalPrice() }

// IsLoading reports whether a backend load is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Err returns the last user-facing error, "" when none.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ClearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// Add puts one more of item in the cart.
func (c *Controller) Add(ctx context.Context, item Item) (Snapshot, error) {
	c.mu.Lock()
	if c.mode == ModeGuest {
		defer c.mu.Unlock()
		snap := c.guest.Add(item)
		logging.CartDebug("guest add %s -> %d lines", item.ServiceID, snap.Len())
		return snap, nil
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	return c.apply(ctx, epoch, "add", item.ServiceID, MsgAddFailed, func(ctx context.Context) (Snapshot, error) {
		return c.gateway.AddItem(ctx, item.ServiceID, 1)
	})
}

// Remove deletes a line.
func (c *Controller) Remove(ctx context.Context, serviceID string) (Snapshot, error) {
	c.mu.Lock()
	if c.mode == ModeGuest {
		defer c.mu.Unlock()
		return c.guest.Remove(serviceID), nil
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	return c.apply(ctx, epoch, "remove", serviceID, MsgRemoveFailed, func(ctx context.Context) (Snapshot, error) {
		return c.gateway.RemoveItem(ctx, serviceID)
	})
}

// UpdateQuantity sets a line's quantity. qty <= 0 removes the line.
func (c *Controller) UpdateQuantity(ctx context.Context, serviceID string, qty int) (Snapshot, error) {
	c.mu.Lock()
	if c.mode == ModeGuest {
		defer c.mu.Unlock()
		return c.guest.SetQuantity(serviceID, qty), nil
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	return c.apply(ctx, epoch, "update", serviceID, MsgUpdateFailed, func(ctx context.Context) (Snapshot, error) {
		if qty <= 0 {
			return c.gateway.RemoveItem(ctx, serviceID)
		}
		return c.gateway.UpdateItem(ctx, serviceID, qty)
	})
}

// Clear empties the cart.
func (c *Controller) Clear(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.mode == ModeGuest {
		defer c.mu.Unlock()
		return c.guest.Clear(), nil
	}
	epoch := c.beginLocked()
	c.mu.Unlock()

	return c.apply(ctx, epoch, "clear", "", MsgClearFailed, func(ctx context.Context) (Snapshot, error) {
		if err := c.gateway.ClearCart(ctx); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{}, nil
	})
}

// Load replaces the cart with the backend's copy. No-op in guest mode.
func (c *Controller) Load(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.mode == ModeGuest {
		defer c.mu.Unlock()
		return c.guest.Snapshot(), nil
	}
	epoch := c.beginLocked()
	c.loading++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
	}()

	return c.apply(ctx, epoch, "load", "", MsgLoadFailed, c.gateway.GetCart)
}

// SessionChanged implements session.Observer.
// Signing in discards the guest cart and loads the backend cart; a failed
// load leaves the cart empty. Signing out empties the cart.
func (c *Controller) SessionChanged(ctx context.Context, authenticated bool) {
	c.mu.Lock()
	if !authenticated {
		if c.mode == ModeGuest {
			c.mu.Unlock()
			return
		}
		c.mode = ModeGuest
		c.epoch++
		c.remote = Snapshot{}
		c.guest.Clear()
		c.errMsg = ""
		c.mu.Unlock()

		logging.Cart("Cart mode -> guest (cart cleared)")
		logging.AuditFor(logging.CategoryCart).CartMode(ModeGuest.String())
		return
	}

	c.mode = ModeAuthenticated
	c.epoch++
	c.remote = Snapshot{}
	c.guest.Clear()
	c.mu.Unlock()

	logging.Cart("Cart mode -> authenticated (guest cart discarded)")
	logging.AuditFor(logging.CategoryCart).CartMode(ModeAuthenticated.String())

	if _, err := c.Load(ctx); err != nil && !errors.Is(err, ErrSessionChanged) {
		logging.CartError("Initial cart load failed: %v", err)
	}
}

// beginLocked clears the recorded error and returns the current epoch.
func (c *Controller) beginLocked() uint64 {
	c.errMsg = ""
	return c.epoch
}

func (c *Controller) apply(ctx context.Context, epoch uint64, action, serviceID, userMsg string, call func(context.Context) (Snapshot, error)) (Snapshot, error) {
	timer := logging.StartTimer(logging.CategoryCart, "cart "+action)
	snap, err := call(ctx)
	elapsed := timer.StopWithThreshold(2 * time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch || c.mode != ModeAuthenticated {
		logging.CartDebug("Dropping stale %s completion (epoch %d, now %d)", action, epoch, c.epoch)
		return c.currentLocked(), ErrSessionChanged
	}

	logging.AuditFor(logging.CategoryCart).CartMutation(action, serviceID, c.mode.String(), elapsed.Milliseconds(), err)

	if err != nil {
		c.errMsg = userMsg
		logging.CartError("%s %s failed: %v", action, serviceID, err)
		return c.remote, fmt.Errorf("cart %s: %w", action, err)
	}

	c.remote = snap
	logging.CartDebug("%s applied: %d lines, %d items", action, snap.Len(), snap.TotalItems())
	return snap, nil
}
