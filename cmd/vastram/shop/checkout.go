package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vastram/internal/checkout"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Checkout form fields, in display order.
const (
	fieldPickupAddress = iota
	fieldPickupDate
	fieldPickupTime
	fieldDeliveryAddress
	fieldInstructions
)

type checkoutPage struct {
	form    *form
	placing bool
}

func newCheckoutPage() *checkoutPage { return &checkoutPage{} }

func (p *checkoutPage) capturing() bool { return p.form != nil && p.form.focused() }

func (p *checkoutPage) blur() {
	if p.form != nil {
		p.form.blur()
	}
}

func (p *checkoutPage) keys() []key.Binding {
	if p.capturing() {
		return []key.Binding{
			binding([]string{"tab"}, "tab/↑↓", "next field"),
			binding([]string{"left", "right"}, "←/→", "pickup time"),
			binding([]string{"ctrl+s"}, "ctrl+s", "place order"),
			binding([]string{"esc"}, "esc", "leave form"),
		}
	}
	return []key.Binding{
		binding([]string{"enter"}, "enter", "edit details"),
		binding([]string{"ctrl+s"}, "ctrl+s", "place order"),
		binding([]string{"b"}, "b", "back to cart"),
	}
}

func slotChoices() []choice {
	slots := checkout.TimeSlots()
	out := make([]choice, len(slots))
	for i, s := range slots {
		out[i] = choice{value: s.Value, label: s.Label}
	}
	return out
}

func (p *checkoutPage) newForm(m *Model) *form {
	u, _ := m.sf.Session.User()
	prefill := checkout.NewForm(u)

	f := newForm("Place Order",
		textField("Pickup Address", "Enter complete pickup address", true),
		textField("Pickup Date", "YYYY-MM-DD", true),
		choiceField("Pickup Time", slotChoices(), prefill.PickupTime),
		textField("Delivery Address", "Enter complete delivery address", true),
		textField("Special Instructions (Optional)", "Any special handling instructions...", false),
	)
	f.fields[fieldPickupAddress].set(prefill.PickupAddress)
	f.fields[fieldPickupDate].set(checkout.MinPickupDate(m.now()))
	f.fields[fieldDeliveryAddress].set(prefill.DeliveryAddress)
	return f
}

// enter sends signed-out users to login and empty carts back to the cart.
func (p *checkoutPage) enter(m *Model) tea.Cmd {
	switch err := m.sf.Checkout.Ready(); {
	case errors.Is(err, checkout.ErrNotSignedIn):
		return m.requireSignIn(pageCheckout, "Please sign in to place an order.")
	case errors.Is(err, checkout.ErrEmptyCart):
		m.setFlash("Your cart is empty. Add some services first.", true)
		return m.navigate(pageCart)
	}
	if p.form == nil {
		p.form = p.newForm(m)
	}
	return p.form.focusOn(fieldPickupAddress)
}

func (p *checkoutPage) formValue() checkout.Form {
	v := p.form.values()
	return checkout.Form{
		PickupAddress:       v[fieldPickupAddress],
		PickupDate:          v[fieldPickupDate],
		PickupTime:          v[fieldPickupTime],
		DeliveryAddress:     v[fieldDeliveryAddress],
		SpecialInstructions: v[fieldInstructions],
	}
}

func (p *checkoutPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if p.form == nil {
		return nil
	}
	if !p.form.focused() {
		switch msg.String() {
		case "enter", "e", "i":
			return p.form.focusOn(fieldPickupAddress)
		case "ctrl+s":
			return p.submit(m)
		case "b":
			return m.navigate(pageCart)
		}
		return nil
	}

	submit, cmd := p.form.update(msg)
	if submit {
		return p.submit(m)
	}
	return cmd
}

func (p *checkoutPage) submit(m *Model) tea.Cmd {
	if p.placing {
		return nil
	}
	f := p.formValue()
	if err := f.Validate(m.now()); err != nil {
		detail := strings.TrimPrefix(err.Error(), checkout.ErrInvalidForm.Error()+": ")
		m.setFlash("Please check your details: "+detail, true)
		return nil
	}

	p.placing = true
	svc := m.sf.Checkout
	return m.async("Processing...", func(ctx context.Context) tea.Msg {
		receipt, err := svc.Place(ctx, f)
		return orderPlacedMsg{receipt: receipt, err: err}
	})
}

func (p *checkoutPage) placed(m *Model, msg orderPlacedMsg) tea.Cmd {
	p.placing = false
	switch {
	case errors.Is(msg.err, checkout.ErrNotSignedIn):
		return m.requireSignIn(pageCheckout, "Please sign in to place an order.")
	case errors.Is(msg.err, checkout.ErrEmptyCart):
		return m.navigate(pageCart)
	case msg.err != nil:
		m.setFlash(msg.receipt.Message, true)
		return nil
	}

	p.form = nil
	m.profile.stale = true
	m.setFlash(msg.receipt.Message, false)
	return m.navigate(pageProfile)
}

func (p *checkoutPage) view(m *Model) string {
	s := m.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Checkout") + "\n")
	if p.form == nil {
		return sb.String()
	}

	sb.WriteString(s.Subtitle.Render("Pickup & Delivery Details") + "\n")
	if p.placing {
		p.form.submit = "Processing..."
	} else {
		p.form.submit = "Place Order"
	}
	sb.WriteString(p.form.view(s) + "\n\n")

	sb.WriteString(s.Subtitle.Render("Order Summary") + "\n")
	for _, it := range m.sf.Cart.Snapshot().Items() {
		sb.WriteString(summaryRow(s, fmt.Sprintf("%s × %d", it.Name, it.Quantity), m.price(it.Subtotal()), summaryWidth+8, false) + "\n")
	}
	q := m.sf.Checkout.Quote()
	sb.WriteString(s.RenderDivider(summaryWidth+8) + "\n")
	sb.WriteString(summaryRow(s, "Subtotal", m.price(q.Subtotal), summaryWidth+8, false) + "\n")
	sb.WriteString(summaryRow(s, fmt.Sprintf("GST (%d%%)", q.RatePct), m.price(q.Tax), summaryWidth+8, false) + "\n")
	sb.WriteString(summaryRow(s, "Total", m.price(q.Total), summaryWidth+8, true) + "\n")
	return sb.String()
}
