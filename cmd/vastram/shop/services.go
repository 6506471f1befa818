package shop

import (
	"context"
	"fmt"
	"strings"

	"vastram/cmd/vastram/ui"
	"vastram/internal/api"
	"vastram/internal/catalog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type servicesPage struct {
	category string
	selected int
	loaded   bool
}

func newServicesPage() *servicesPage {
	return &servicesPage{category: catalog.All}
}

func (p *servicesPage) capturing() bool { return false }
func (p *servicesPage) blur()           {}

func (p *servicesPage) keys() []key.Binding {
	return []key.Binding{
		binding([]string{"tab"}, "tab", "next category"),
		binding([]string{"up", "down"}, "↑/↓", "select"),
		binding([]string{"enter", "a"}, "enter/a", "add to cart"),
		binding([]string{"r"}, "r", "reload"),
	}
}

// setCategory selects a category id; see catalog.ResolveCategory for
// link names.
func (p *servicesPage) setCategory(id string) {
	p.category = id
	p.selected = 0
}

func (p *servicesPage) enter(m *Model) tea.Cmd {
	if p.loaded || m.sf.Catalog.IsLoading() {
		return nil
	}
	return p.load(m)
}

func (p *servicesPage) load(m *Model) tea.Cmd {
	cat := m.sf.Catalog
	return m.async("Loading services...", func(ctx context.Context) tea.Msg {
		return catalogLoadedMsg{err: cat.Load(ctx)}
	})
}

func (p *servicesPage) onLoaded(m *Model, msg catalogLoadedMsg) tea.Cmd {
	p.loaded = msg.err == nil
	p.selected = clamp(p.selected, len(p.list(m)))
	return nil
}

func (p *servicesPage) list(m *Model) []api.Service {
	return m.sf.Catalog.Services(p.category)
}

func (p *servicesPage) cycleCategory(delta int) {
	idx := 0
	for i, o := range catalog.Options {
		if o.ID == p.category {
			idx = i
		}
	}
	n := len(catalog.Options)
	p.setCategory(catalog.Options[(idx+delta+n)%n].ID)
}

func (p *servicesPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	list := p.list(m)
	switch msg.String() {
	case "tab":
		p.cycleCategory(1)
	case "shift+tab":
		p.cycleCategory(-1)
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(list)-1 {
			p.selected++
		}
	case "r":
		if !m.sf.Catalog.IsLoading() {
			return p.load(m)
		}
	case "enter", "a":
		if p.selected < len(list) {
			return p.add(m, list[p.selected])
		}
	}
	return nil
}

func (p *servicesPage) add(m *Model, svc api.Service) tea.Cmd {
	c := m.sf.Cart
	item := catalog.ItemFor(svc)
	return m.async("Adding to cart...", func(ctx context.Context) tea.Msg {
		_, err := c.Add(ctx, item)
		return cartDoneMsg{action: "add", name: svc.Name, err: err}
	})
}

func (p *servicesPage) view(m *Model) string {
	s := m.styles
	var sb strings.Builder

	sb.WriteString(s.Title.Render("Our Services") + "\n")
	sb.WriteString(s.Muted.Render("Professional laundry and dry cleaning services with transparent pricing") + "\n\n")

	sb.WriteString(s.Label.Render("Filter by category: "))
	for _, o := range catalog.Options {
		if o.ID == p.category {
			sb.WriteString(s.NavActive.Render(o.Name))
		} else {
			sb.WriteString(s.NavItem.Render(o.Name))
		}
	}
	sb.WriteString("\n\n")

	switch {
	case m.sf.Catalog.Err() != "":
		sb.WriteString(ui.ErrorMessage(s, m.sf.Catalog.Err(), "r") + "\n")
	case !p.loaded:
		sb.WriteString(s.Muted.Render("Loading services...") + "\n")
	default:
		sb.WriteString(p.tableView(m))
	}

	sb.WriteString("\n" + s.Subtitle.Render("Service Information") + "\n")
	sb.WriteString(s.Bold.Render("Pickup & Delivery") + "\n")
	for _, line := range []string{
		"Free pickup and delivery within city limits",
		"Same-day pickup available (before 2 PM)",
		"Express delivery available for urgent orders",
	} {
		sb.WriteString(s.Muted.Render("  • "+line) + "\n")
	}
	sb.WriteString(s.Bold.Render("Quality Guarantee") + "\n")
	for _, line := range []string{
		"100% satisfaction guarantee",
		"Damage protection for all items",
		"Eco-friendly cleaning products",
	} {
		sb.WriteString(s.Muted.Render("  • "+line) + "\n")
	}
	return sb.String()
}

func (p *servicesPage) tableView(m *Model) string {
	s := m.styles
	list := p.list(m)
	if len(list) == 0 {
		return s.Muted.Render("No services found in this category.") + "\n"
	}

	t := ui.NewSimpleTable(fmt.Sprintf("%s (%d)", catalog.OptionName(p.category), len(list)),
		[]string{"SERVICE", "CATEGORY", "TURNAROUND", "PRICE"})
	t.RightAlign(3)
	for _, svc := range list {
		t.AddRow(svc.Name, svc.Category, svc.ProcessingTime, m.price(svc.Price)+" per item")
	}
	t.Selected = p.selected

	var sb strings.Builder
	sb.WriteString(t.View(s))
	if p.selected < len(list) {
		svc := list[p.selected]
		if svc.Description != "" {
			sb.WriteString("\n" + s.Body.Render(svc.Description) + "\n")
		}
		if len(svc.Features) > 0 {
			sb.WriteString(s.Muted.Render("Includes: "+strings.Join(svc.Features, " · ")) + "\n")
		}
	}
	return sb.String()
}
