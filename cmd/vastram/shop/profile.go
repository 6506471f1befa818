package shop

import (
	"context"
	"fmt"
	"strings"

	"vastram/cmd/vastram/ui"
	"vastram/internal/api"
	"vastram/internal/logging"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

const (
	msgOrdersFailed = "Failed to load orders. Please try again."
	msgNoOrders     = "No orders yet. Start by browsing our services!"
	recentOrders    = 10
)

type profilePage struct {
	orders   []api.Order
	loaded   bool
	loading  bool
	errMsg   string
	selected int
	detail   bool
	// stale forces a reload on the next visit, e.g. after checkout.
	stale bool
}

func newProfilePage() *profilePage { return &profilePage{} }

func (p *profilePage) capturing() bool { return false }
func (p *profilePage) blur()           { p.detail = false }

func (p *profilePage) keys() []key.Binding {
	return []key.Binding{
		binding([]string{"up", "down"}, "↑/↓", "select order"),
		binding([]string{"enter"}, "enter", "view details"),
		binding([]string{"r"}, "r", "reload"),
		binding([]string{"o"}, "o", "sign out"),
	}
}

func (p *profilePage) enter(m *Model) tea.Cmd {
	p.detail = false
	if (p.loaded && !p.stale) || p.loading {
		return nil
	}
	return p.load(m)
}

func (p *profilePage) load(m *Model) tea.Cmd {
	p.loading = true
	p.errMsg = ""
	orders := m.sf.Client.Orders()
	return m.async("Loading orders...", func(ctx context.Context) tea.Msg {
		list, err := orders.List(ctx, api.OrderQuery{Limit: recentOrders})
		return ordersLoadedMsg{orders: list, err: err}
	})
}

func (p *profilePage) onLoaded(m *Model, msg ordersLoadedMsg) tea.Cmd {
	p.loading = false
	if msg.err != nil {
		logging.Get(logging.CategoryUI).Warn("Order history failed: %v", msg.err)
		p.errMsg = msgOrdersFailed
		return nil
	}
	p.orders = msg.orders
	p.loaded = true
	p.stale = false
	p.selected = clamp(p.selected, len(p.orders))
	return nil
}

// reset forgets the previous user's orders.
func (p *profilePage) reset() {
	*p = profilePage{}
}

func (p *profilePage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(p.orders)-1 {
			p.selected++
		}
	case "enter":
		if len(p.orders) > 0 {
			p.detail = !p.detail
		}
	case "esc", "backspace":
		p.detail = false
	case "r":
		if !p.loading {
			return p.load(m)
		}
	case "s":
		if len(p.orders) == 0 {
			return m.navigate(pageServices)
		}
	case "o":
		return p.logout(m)
	}
	return nil
}

func (p *profilePage) logout(m *Model) tea.Cmd {
	sess := m.sf.Session
	p.reset()
	m.login.reset()
	return m.async("Signing out...", func(ctx context.Context) tea.Msg {
		sess.Logout(ctx)
		return logoutDoneMsg{}
	})
}

// benefits lists the perks of a membership tier.
func benefits(tier string) []string {
	out := []string{"Free pickup & delivery", "Priority processing", "Quality guarantee"}
	if tier != api.TierBronze {
		out = append(out, "Express service available")
	}
	if tier == api.TierGold || tier == api.TierPlatinum {
		out = append(out, "10% discount on bulk orders")
	}
	if tier == api.TierPlatinum {
		out = append(out, "24/7 customer support")
	}
	return out
}

func (p *profilePage) view(m *Model) string {
	s := m.styles
	u, ok := m.sf.Session.User()
	if !ok {
		return s.Muted.Render("Not signed in.")
	}

	var sb strings.Builder
	sb.WriteString(s.Title.Render("My Profile") + "\n")
	sb.WriteString(s.Bold.Render(u.Name) + " " + s.TierBadge(u.Tier()) + "\n")
	sb.WriteString(s.Body.Render("✉  "+u.Email) + "\n")
	if u.Phone != "" {
		sb.WriteString(s.Body.Render("☎  "+u.Phone) + "\n")
	}
	if u.Address != "" {
		sb.WriteString(s.Body.Render("⌂  "+u.Address) + "\n")
	}
	if !u.CreatedAt.IsZero() {
		sb.WriteString(s.Muted.Render("Member since "+u.CreatedAt.Format("Jan 2006")) + "\n")
	}

	sb.WriteString("\n" + s.Subtitle.Render("Vastram Membership Benefits") + "\n")
	for _, b := range benefits(u.Tier()) {
		sb.WriteString(s.Muted.Render("  • "+b) + "\n")
	}

	sb.WriteString("\n" + s.Subtitle.Render("Recent Orders") + "\n")
	switch {
	case p.errMsg != "":
		sb.WriteString(ui.ErrorMessage(s, p.errMsg, "r") + "\n")
	case !p.loaded:
		sb.WriteString(s.Muted.Render("Loading orders...") + "\n")
	case len(p.orders) == 0:
		sb.WriteString(s.Muted.Render(msgNoOrders) + " " + s.Muted.Render("[s]") + "\n")
	case p.detail:
		sb.WriteString(p.detailView(m, p.orders[clamp(p.selected, len(p.orders))]))
	default:
		t := ui.NewSimpleTable("", []string{"ORDER", "PLACED", "STATUS", "ITEMS", "TOTAL"})
		t.RightAlign(4)
		for _, o := range p.orders {
			t.AddRow("#"+o.OrderNumber, o.CreatedAt.Format("Jan 2, 2006"), s.Status(o.Status), o.ItemsSummary(), m.price(o.Total))
		}
		t.Selected = p.selected
		sb.WriteString(t.View(s))
	}
	return sb.String()
}

func (p *profilePage) detailView(m *Model, o api.Order) string {
	s := m.styles
	var sb strings.Builder
	sb.WriteString(s.Bold.Render("Order #"+o.OrderNumber) + "  " + s.Status(o.Status) + "\n")
	sb.WriteString(s.Muted.Render(fmt.Sprintf("Placed %s (%s)", o.CreatedAt.Format("Jan 2, 2006"), humanize.Time(o.CreatedAt))) + "\n\n")

	for _, it := range o.Items {
		name := it.ServiceName
		if name == "" {
			name = it.Service
		}
		sb.WriteString(summaryRow(s, fmt.Sprintf("%s × %d", name, it.Quantity), m.price(it.Price*int64(it.Quantity)), summaryWidth+8, false) + "\n")
	}
	sb.WriteString(s.RenderDivider(summaryWidth+8) + "\n")
	if o.Subtotal > 0 {
		sb.WriteString(summaryRow(s, "Subtotal", m.price(o.Subtotal), summaryWidth+8, false) + "\n")
		sb.WriteString(summaryRow(s, "GST", m.price(o.Tax), summaryWidth+8, false) + "\n")
	}
	sb.WriteString(summaryRow(s, "Total", m.price(o.Total), summaryWidth+8, true) + "\n\n")

	sb.WriteString(s.Label.Render("Pickup: ") + s.Body.Render(strings.TrimSpace(o.PickupDate+" "+o.PickupTime)) + "\n")
	sb.WriteString(s.Label.Render("Pickup address: ") + s.Body.Render(o.PickupAddress) + "\n")
	sb.WriteString(s.Label.Render("Delivery address: ") + s.Body.Render(o.DeliveryAddress) + "\n")
	if o.SpecialInstructions != "" {
		sb.WriteString(s.Label.Render("Instructions: ") + s.Body.Render(o.SpecialInstructions) + "\n")
	}
	sb.WriteString("\n" + s.Muted.Render("[enter] back to orders"))
	return sb.String()
}
