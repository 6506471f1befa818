package shop

import (
	"fmt"
	"strings"

	"vastram/cmd/vastram/ui"
	"vastram/internal/catalog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type categoryCard struct {
	title       string
	description string
	link        string // services category parameter
}

var homeCategories = []categoryCard{
	{"Dry Cleaning", "Professional dry cleaning for suits, formal wear, and delicate fabrics", "dry-cleaning"},
	{"Premium Laundry", "Premium washing and care for your everyday clothes", "premium-laundry"},
	{"Bridal Wear", "Special care for wedding dresses, lehengas, and traditional wear", "bridal-wear"},
	{"Home Essentials", "Cleaning services for curtains, bedsheets, and home textiles", "home-essentials"},
}

const whyChooseMarkdown = `## Why Choose Vastram?

We're committed to providing the best laundry experience in the city.

* **Free Pickup & Delivery**: convenient doorstep service across the city
* **24-48 Hour Service**: quick turnaround for all your laundry needs
* **Quality Guarantee**: 100% satisfaction or money back guarantee
* **Premium Care**: expert handling of delicate and luxury items
`

type homePage struct {
	selected int

	// glamour output, cached per theme and width
	features    string
	renderedFor string
}

func newHomePage() *homePage { return &homePage{} }

func (p *homePage) enter(m *Model) tea.Cmd { return nil }
func (p *homePage) capturing() bool        { return false }
func (p *homePage) blur()                  {}

func (p *homePage) keys() []key.Binding {
	return []key.Binding{
		binding([]string{"up", "k"}, "↑/↓", "choose category"),
		binding([]string{"enter"}, "enter", "see prices"),
		binding([]string{"b"}, "b", "book now"),
	}
}

func (p *homePage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(homeCategories)-1 {
			p.selected++
		}
	case "enter":
		m.services.setCategory(catalog.ResolveCategory(homeCategories[p.selected].link))
		return m.navigate(pageServices)
	case "b":
		m.services.setCategory(catalog.All)
		return m.navigate(pageServices)
	}
	return nil
}

func (p *homePage) view(m *Model) string {
	s := m.styles
	var sb strings.Builder

	sb.WriteString(s.Title.Render("Vastram: Professional Laundry & Dry Cleaning") + "\n")
	sb.WriteString(s.Body.Render("Experience premium laundry services with pickup and delivery. Made for better laundry experience with ♥ and care.") + "\n")
	sb.WriteString(s.ButtonActive.Render("Book Now") + " " + s.Muted.Render("[b]") + "\n\n")

	sb.WriteString(s.Subtitle.Render("Our Services") + "\n")
	for i, c := range homeCategories {
		marker := "  "
		title := s.Bold.Render(c.title)
		if i == p.selected {
			marker = s.NavHighlight.Render("▸ ")
			title = s.NavActive.Render(c.title)
		}
		sb.WriteString(marker + title + "\n")
		sb.WriteString("  " + s.Muted.Render(c.description) + "\n")
		sb.WriteString("  " + s.Info.Render(c.title+" Prices →") + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(p.featuresView(m) + "\n\n")

	sb.WriteString(s.Subtitle.Render("Ready to Experience Premium Laundry Care?") + "\n")
	sb.WriteString(s.Body.Render("Book your first pickup today and see the Vastram difference") + "\n")
	return sb.String()
}

func (p *homePage) featuresView(m *Model) string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	cacheKey := fmt.Sprintf("%s/%d", m.theme.Name, width)
	if p.renderedFor != cacheKey {
		p.features = ui.RenderMarkdown(m.styles, whyChooseMarkdown, width)
		p.renderedFor = cacheKey
	}
	return p.features
}
