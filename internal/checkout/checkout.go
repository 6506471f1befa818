// Package checkout prices the cart and turns it into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vastram/internal/api"
	"vastram/internal/cart"
	"vastram/internal/logging"
)

const (
	MsgPlaced = "Order placed successfully! Order Number: %s"
	MsgFailed = "Failed to place order. Please try again."

	// DefaultTaxRatePercent is GST.
	DefaultTaxRatePercent = 18
	DefaultPickupTime     = "10:00"
	DateLayout            = "2006-01-02"
)

var (
	ErrNotSignedIn = errors.New("checkout: sign in to place an order")
	ErrEmptyCart   = errors.New("checkout: cart is empty")
	ErrInvalidForm = errors.New("checkout: invalid form")
)

// Quote is the price breakdown shown next to the form.
type Quote struct {
	Subtotal int64
	Tax      int64
	Total    int64
	RatePct  int64
}

// NewQuote computes tax as round(subtotal * rate / 100), half up.
func NewQuote(subtotal, ratePercent int64) Quote {
	tax := (subtotal*ratePercent + 50) / 100
	return Quote{Subtotal: subtotal, Tax: tax, Total: subtotal + tax, RatePct: ratePercent}
}

// Slot is a selectable pickup time.
type Slot struct {
	Value string // 24h "HH:MM", sent to the backend
	Label string
}

// TimeSlots returns the hourly pickup slots from 09:00 to 17:00.
func TimeSlots() []Slot {
	slots := make([]Slot, 0, 9)
	for h := 9; h <= 17; h++ {
		t := time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC)
		slots = append(slots, Slot{Value: t.Format("15:04"), Label: t.Format("3:04 PM")})
	}
	return slots
}

func validSlot(v string) bool {
	for _, s := range TimeSlots() {
		if s.Value == v {
			return true
		}
	}
	return false
}

// MinPickupDate is the earliest allowed pickup date: tomorrow.
func MinPickupDate(now time.Time) string {
	return now.AddDate(0, 0, 1).Format(DateLayout)
}

// Form holds the pickup and delivery details.
type Form struct {
	PickupAddress       string
	PickupDate          string
	PickupTime          string
	DeliveryAddress     string
	SpecialInstructions string
}

// NewForm prefills both addresses from the user's profile.
func NewForm(u api.User) Form {
	return Form{
		PickupAddress:   u.Address,
		PickupTime:      DefaultPickupTime,
		DeliveryAddress: u.Address,
	}
}

// Validate checks required fields, the pickup date and the time slot.
// Everything else is left to the backend.
func (f Form) Validate(now time.Time) error {
	var missing []string
	if strings.TrimSpace(f.PickupAddress) == "" {
		missing = append(missing, "pickup address")
	}
	if strings.TrimSpace(f.PickupDate) == "" {
		missing = append(missing, "pickup date")
	}
	if strings.TrimSpace(f.PickupTime) == "" {
		missing = append(missing, "pickup time")
	}
	if strings.TrimSpace(f.DeliveryAddress) == "" {
		missing = append(missing, "delivery address")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidForm, strings.Join(missing, ", "))
	}

	date, err := time.ParseInLocation(DateLayout, f.PickupDate, now.Location())
	if err != nil {
		return fmt.Errorf("%w: pickup date must be YYYY-MM-DD", ErrInvalidForm)
	}
	if date.Format(DateLayout) < MinPickupDate(now) {
		return fmt.Errorf("%w: pickup date must be %s or later", ErrInvalidForm, MinPickupDate(now))
	}
	if !validSlot(f.PickupTime) {
		return fmt.Errorf("%w: pickup time %q is not an available slot", ErrInvalidForm, f.PickupTime)
	}
	return nil
}

// Request builds the order payload from the cart lines.
func (f Form) Request(items []cart.Item) api.CreateOrderRequest {
	req := api.CreateOrderRequest{
		Items:               make([]api.CreateOrderItem, 0, len(items)),
		PickupAddress:       f.PickupAddress,
		PickupDate:          f.PickupDate,
		PickupTime:          f.PickupTime,
		DeliveryAddress:     f.DeliveryAddress,
		SpecialInstructions: f.SpecialInstructions,
	}
	for _, it := range items {
		req.Items = append(req.Items, api.CreateOrderItem{Service: it.ServiceID, Quantity: it.Quantity})
	}
	return req
}

// OrderCreator submits orders.
type OrderCreator interface {
	Create(ctx context.Context, req api.CreateOrderRequest) (api.Order, string, error)
}

// Cart is the slice of the cart controller checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) (cart.Snapshot, error)
}

// Session reports whether a user is signed in.
type Session interface {
	IsAuthenticated() bool
}

// Receipt is the outcome of Place.
type Receipt struct {
	Order   api.Order
	Message string
}

// Service places orders for the signed-in user's cart.
type Service struct {
	orders  OrderCreator
	cart    Cart
	session Session
	ratePct int64
	now     func() time.Time
}

// New creates a checkout service. A negative rate uses GST; zero means no tax.
func New(orders OrderCreator, c Cart, s Session, taxRatePercent int64) *Service {
	if taxRatePercent < 0 {
		taxRatePercent = DefaultTaxRatePercent
	}
	return &Service{orders: orders, cart: c, session: s, ratePct: taxRatePercent, now: time.Now}
}

// Quote prices the current cart.
func (s *Service) Quote() Quote {
	return NewQuote(s.cart.Snapshot().TotalPrice(), s.ratePct)
}

// Ready reports why checkout cannot start, if it cannot.
func (s *Service) Ready() error {
	if !s.session.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if s.cart.Snapshot().IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

// Place validates the form, submits the order and clears the cart.
// On failure the receipt message is the backend's or MsgFailed.
func (s *Service) Place(ctx context.Context, f Form) (Receipt, error) {
	if err := s.Ready(); err != nil {
		return Receipt{}, err
	}
	if err := f.Validate(s.now()); err != nil {
		return Receipt{Message: err.Error()}, err
	}

	snap := s.cart.Snapshot()
	quote := NewQuote(snap.TotalPrice(), s.ratePct)
	req := f.Request(snap.Items())

	timer := logging.StartTimer(logging.CategoryCheckout, "place order")
	order, _, err := s.orders.Create(ctx, req)
	timer.StopWithThreshold(5 * time.Second)
	if err != nil {
		logging.CheckoutError("Order creation failed: %v", err)
		logging.Audit().OrderPlaced("", quote.Total, len(req.Items), err)
		return Receipt{Message: api.UserMessage(err, MsgFailed)}, fmt.Errorf("create order: %w", err)
	}

	if _, err := s.cart.Clear(ctx); err != nil {
		logging.CheckoutError("Order %s placed but cart clear failed: %v", order.OrderNumber, err)
	}

	logging.Checkout("Order %s placed: %d items, total %d", order.OrderNumber, len(req.Items), quote.Total)
	logging.Audit().OrderPlaced(order.OrderNumber, quote.Total, len(req.Items), nil)
	return Receipt{Order: order, Message: fmt.Sprintf(MsgPlaced, order.OrderNumber)}, nil
}
