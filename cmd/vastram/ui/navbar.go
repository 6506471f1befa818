package ui

import (
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Animated elements of the navbar.
const (
	ElemHighlightX     = "highlight.x"
	ElemHighlightWidth = "highlight.width"
	ElemBadge          = "badge"

	highlightDuration = 600 * time.Millisecond
	badgeDuration     = 400 * time.Millisecond
)

// NavItem is one navbar entry. Badge marks the entry showing the cart count.
type NavItem struct {
	ID    string
	Label string
	Badge bool
}

// Navbar renders the page links with a sliding highlight under the active one.
type Navbar struct {
	items     []NavItem
	active    int
	cartCount int
	animate   bool
	player    *Player
}

// NewNavbar creates a navbar with the first item active.
func NewNavbar(items []NavItem, animate bool) *Navbar {
	n := &Navbar{items: items, animate: animate, player: NewPlayer()}
	x, w := n.span(0)
	n.player.Set(ElemHighlightX, x)
	n.player.Set(ElemHighlightWidth, w)
	return n
}

// SetItems replaces the entries, e.g. Login becoming Profile.
func (n *Navbar) SetItems(items []NavItem) {
	n.items = items
	if n.active >= len(items) {
		n.active = 0
	}
	n.snap()
}

// Items returns the entries in display order.
func (n *Navbar) Items() []NavItem { return n.items }

// Active returns the index of the active entry.
func (n *Navbar) Active() int { return n.active }

// CartCount returns the count shown in the badge.
func (n *Navbar) CartCount() int { return n.cartCount }

// SetActive moves the highlight to entry i.
func (n *Navbar) SetActive(i int) tea.Cmd {
	if i < 0 || i >= len(n.items) {
		return nil
	}
	n.active = i
	x, w := n.span(i)
	if !n.animate {
		n.player.Set(ElemHighlightX, x)
		n.player.Set(ElemHighlightWidth, w)
		return nil
	}
	return n.play(Timeline{
		{Element: ElemHighlightX, Keyframes: []float64{x}, Duration: highlightDuration},
		{Element: ElemHighlightWidth, Keyframes: []float64{w}, Duration: highlightDuration},
	})
}

// SetCartCount updates the badge and pops it when the count changes.
func (n *Navbar) SetCartCount(c int) tea.Cmd {
	if c == n.cartCount {
		return nil
	}
	n.cartCount = c
	// The cart entry changed width; later entries moved.
	n.snap()
	if !n.animate {
		return nil
	}
	return n.play(Timeline{
		{Element: ElemBadge, Keyframes: []float64{1, 0}, Duration: badgeDuration},
	})
}

func (n *Navbar) play(tl Timeline) tea.Cmd {
	wasRunning := n.player.Running()
	n.player.Play(tl)
	if wasRunning {
		// A frame is already scheduled.
		return nil
	}
	return Frame()
}

// snap moves the highlight under the active entry without animation.
func (n *Navbar) snap() {
	x, w := n.span(n.active)
	n.player.Set(ElemHighlightX, x)
	n.player.Set(ElemHighlightWidth, w)
}

// Update advances the animation on FrameMsg.
func (n *Navbar) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(FrameMsg); !ok {
		return nil
	}
	n.player.Advance(FrameInterval)
	if n.player.Running() {
		return Frame()
	}
	return nil
}

// SetAnimations turns the highlight spring on or off. Turning it off
// settles any running animation immediately.
func (n *Navbar) SetAnimations(on bool) {
	n.animate = on
	if !on {
		n.player = NewPlayer()
		n.snap()
	}
}

// Animating reports whether a frame is pending.
func (n *Navbar) Animating() bool { return n.player.Running() }

func (n *Navbar) badgeText() string {
	return strconv.Itoa(n.cartCount)
}

// itemWidth is the rendered width of entry i including padding and badge.
func (n *Navbar) itemWidth(i int) int {
	it := n.items[i]
	w := lipgloss.Width(it.Label) + 2
	if it.Badge && n.cartCount > 0 {
		w += 1 + lipgloss.Width(n.badgeText()) + 2
	}
	return w
}

// span returns the x offset and width of entry i.
func (n *Navbar) span(i int) (float64, float64) {
	if i < 0 || i >= len(n.items) {
		return 0, 0
	}
	x := 0
	for j := 0; j < i; j++ {
		x += n.itemWidth(j)
	}
	return float64(x), float64(n.itemWidth(i))
}

// View renders the entries and, below them, the highlight bar.
func (n *Navbar) View(s Styles) string {
	var row strings.Builder
	for i, it := range n.items {
		st := s.NavItem
		if i == n.active {
			st = s.NavActive
		}
		label := it.Label
		if it.Badge && n.cartCount > 0 {
			badge := s.Badge
			if n.player.Value(ElemBadge) > 0.5 {
				badge = badge.Copy().Background(s.Theme.Primary)
			}
			label += " " + badge.Render(n.badgeText())
		}
		row.WriteString(st.Render(label))
	}

	x := int(math.Round(n.player.Value(ElemHighlightX)))
	w := int(math.Round(n.player.Value(ElemHighlightWidth)))
	if x < 0 {
		x = 0
	}
	if w < 1 {
		w = 1
	}
	bar := strings.Repeat(" ", x) + s.NavHighlight.Render(strings.Repeat("━", w))
	return row.String() + "\n" + bar
}
