package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vastram/cmd/vastram/ui"
	"vastram/internal/cart"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const summaryWidth = 32

type cartPage struct {
	selected int
}

func newCartPage() *cartPage { return &cartPage{} }

func (p *cartPage) capturing() bool { return false }
func (p *cartPage) blur()           {}

func (p *cartPage) keys() []key.Binding {
	return []key.Binding{
		binding([]string{"+", "-"}, "+/-", "quantity"),
		binding([]string{"x"}, "x", "remove"),
		binding([]string{"c"}, "c", "clear"),
		binding([]string{"enter"}, "enter", "checkout"),
		binding([]string{"s"}, "s", "continue shopping"),
	}
}

// enter refreshes a signed-in cart from the backend.
func (p *cartPage) enter(m *Model) tea.Cmd {
	if !m.sf.Session.IsAuthenticated() || m.sf.Cart.IsLoading() {
		return nil
	}
	return p.reload(m)
}

func (p *cartPage) reload(m *Model) tea.Cmd {
	c := m.sf.Cart
	return m.async("Loading cart...", func(ctx context.Context) tea.Msg {
		_, err := c.Load(ctx)
		return cartDoneMsg{action: "load", err: err}
	})
}

func (p *cartPage) mutate(m *Model, action, name, label string, call func(context.Context, *cart.Controller) error) tea.Cmd {
	c := m.sf.Cart
	return m.async(label, func(ctx context.Context) tea.Msg {
		return cartDoneMsg{action: action, name: name, err: call(ctx, c)}
	})
}

func (p *cartPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	items := m.sf.Cart.Snapshot().Items()
	if len(items) == 0 {
		switch msg.String() {
		case "enter", "s":
			return m.navigate(pageServices)
		case "r":
			if m.sf.Cart.Err() != "" && m.sf.Session.IsAuthenticated() {
				return p.reload(m)
			}
		}
		return nil
	}

	p.selected = clamp(p.selected, len(items))
	it := items[p.selected]

	switch msg.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(items)-1 {
			p.selected++
		}
	case "+", "=":
		return p.mutate(m, "update", it.Name, "Updating cart...", func(ctx context.Context, c *cart.Controller) error {
			_, err := c.UpdateQuantity(ctx, it.ServiceID, it.Quantity+1)
			return err
		})
	case "-":
		return p.mutate(m, "update", it.Name, "Updating cart...", func(ctx context.Context, c *cart.Controller) error {
			_, err := c.UpdateQuantity(ctx, it.ServiceID, it.Quantity-1)
			return err
		})
	case "x", "delete":
		return p.mutate(m, "remove", it.Name, "Removing item...", func(ctx context.Context, c *cart.Controller) error {
			_, err := c.Remove(ctx, it.ServiceID)
			return err
		})
	case "c":
		return p.mutate(m, "clear", "", "Clearing cart...", func(ctx context.Context, c *cart.Controller) error {
			_, err := c.Clear(ctx)
			return err
		})
	case "r":
		if m.sf.Session.IsAuthenticated() {
			return p.reload(m)
		}
	case "s":
		return m.navigate(pageServices)
	case "enter":
		return m.navigate(pageCheckout)
	}
	return nil
}

// done reports the outcome of a cart call, wherever the user is now.
func (p *cartPage) done(m *Model, msg cartDoneMsg) tea.Cmd {
	p.selected = clamp(p.selected, m.sf.Cart.Snapshot().Len())

	if msg.err != nil {
		if errors.Is(msg.err, cart.ErrSessionChanged) {
			return nil
		}
		text := m.sf.Cart.Err()
		if text == "" {
			text = "Something went wrong"
		}
		if msg.action == "add" {
			text += ". Please try again."
		}
		m.setFlash(text, true)
		return nil
	}

	switch msg.action {
	case "add":
		m.setFlash(fmt.Sprintf("Added %s to cart", msg.name), false)
	case "remove":
		m.setFlash(fmt.Sprintf("Removed %s from cart", msg.name), false)
	case "clear":
		m.setFlash("Cart cleared.", false)
	}
	return nil
}

func (p *cartPage) view(m *Model) string {
	s := m.styles
	snap := m.sf.Cart.Snapshot()
	var sb strings.Builder

	if errMsg := m.sf.Cart.Err(); errMsg != "" {
		retry := ""
		if m.sf.Session.IsAuthenticated() {
			retry = "r"
		}
		sb.WriteString(ui.ErrorMessage(s, errMsg, retry) + "\n\n")
	}

	if snap.IsEmpty() {
		if m.sf.Cart.IsLoading() {
			sb.WriteString(s.Muted.Render("Loading cart...") + "\n")
			return sb.String()
		}
		sb.WriteString(s.Title.Render("Your cart is empty") + "\n")
		sb.WriteString(s.Muted.Render("Add some services to get started") + "\n\n")
		sb.WriteString(s.ButtonActive.Render("Browse Services") + " " + s.Muted.Render("[enter]") + "\n")
		return sb.String()
	}

	n := snap.TotalItems()
	sb.WriteString(s.Title.Render(fmt.Sprintf("Shopping Cart (%d %s)", n, plural(n, "item", "items"))) + "\n")

	t := ui.NewSimpleTable("", []string{"SERVICE", "DETAILS", "PRICE", "QTY", "TOTAL"})
	t.RightAlign(2)
	t.RightAlign(3)
	t.RightAlign(4)
	for _, it := range snap.Items() {
		details := it.Category
		if it.ProcessingTime != "" {
			details += " • " + it.ProcessingTime
		}
		t.AddRow(it.Name, details, m.price(it.UnitPrice)+" each", strconv.Itoa(it.Quantity), m.price(it.Subtotal()))
	}
	t.Selected = clamp(p.selected, snap.Len())
	sb.WriteString(t.View(s) + "\n")

	q := m.sf.Checkout.Quote()
	sb.WriteString(s.Subtitle.Render("Order Summary") + "\n")
	sb.WriteString(summaryRow(s, "Subtotal", m.price(q.Subtotal), summaryWidth, false) + "\n")
	sb.WriteString(summaryRow(s, fmt.Sprintf("GST (%d%%)", q.RatePct), m.price(q.Tax), summaryWidth, false) + "\n")
	sb.WriteString(s.RenderDivider(summaryWidth) + "\n")
	sb.WriteString(summaryRow(s, "Total", m.price(q.Total), summaryWidth, true) + "\n\n")

	sb.WriteString(s.ButtonActive.Render("Proceed to Checkout") + " " + s.Muted.Render("[enter]") + "  ")
	sb.WriteString(s.Button.Render("Continue Shopping") + " " + s.Muted.Render("[s]") + "\n")
	if !m.sf.Session.IsAuthenticated() {
		sb.WriteString("\n" + s.Info.Render("Sign in to place your order. Guest carts are not saved.") + "\n")
	}
	return sb.String()
}
