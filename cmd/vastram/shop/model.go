// Package shop is the interactive storefront: a bubbletea program with a
// page per section of the store and a navbar that follows the session.
package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"vastram/cmd/vastram/ui"
	"vastram/internal/config"
	"vastram/internal/logging"
	"vastram/internal/system"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Page identifiers, also used as navbar item ids.
const (
	pageHome     = "home"
	pageServices = "services"
	pageCart     = "cart"
	pageCheckout = "checkout"
	pageProfile  = "profile"
	pageLogin    = "login"
	pageContact  = "contact"
)

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	eventBuffer       = 16
)

// Options configures the shop.
type Options struct {
	Storefront *system.Storefront
	Theme      string // auto, light or dark; a saved preference wins
	ForceTheme bool   // Theme wins over the saved preference
	Animations bool
	ConfigPath string           // watched for theme and logging changes
	Now        func() time.Time // optional
}

// page is one screen of the shop.
type page interface {
	enter(m *Model) tea.Cmd
	update(m *Model, msg tea.KeyMsg) tea.Cmd
	view(m *Model) string
	// capturing reports whether keys go to a focused input.
	capturing() bool
	blur()
	keys() []key.Binding
}

// Model is the root bubbletea model. Async work runs in commands that
// return result messages; session invalidation and config reloads arrive
// on the events channel.
type Model struct {
	ctx  context.Context
	sf   *system.Storefront
	opts Options
	now  func() time.Time

	keys     keyMap
	help     help.Model
	showHelp bool
	theme    ui.Theme
	styles   ui.Styles
	nav      *ui.Navbar
	spinner  ui.Spinner
	viewport viewport.Model
	width    int
	height   int

	current  string
	home     *homePage
	services *servicesPage
	cart     *cartPage
	checkout *checkoutPage
	profile  *profilePage
	login    *loginPage
	contact  *contactPage

	flash    string
	flashErr bool
	pending  int

	events     chan tea.Msg
	subscribed bool
	quitting   bool
}

// New builds the shop for a booted storefront.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Storefront == nil {
		return nil, errors.New("shop: storefront is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Model{
		ctx:     ctx,
		sf:      opts.Storefront,
		opts:    opts,
		now:     opts.Now,
		keys:    defaultKeyMap(),
		help:    help.New(),
		events:  make(chan tea.Msg, eventBuffer),
		current: pageHome,
	}

	name := opts.Theme
	if saved, err := m.sf.Store.Theme(ctx); err == nil && config.IsValidTheme(saved) && !opts.ForceTheme {
		name = saved
	}
	m.applyTheme(ui.ThemeFor(name))

	m.home = newHomePage()
	m.services = newServicesPage()
	m.cart = newCartPage()
	m.checkout = newCheckoutPage()
	m.profile = newProfilePage()
	m.login = newLoginPage()
	m.contact = newContactPage()

	m.nav = ui.NewNavbar(m.navItems(), opts.Animations)
	m.nav.SetCartCount(m.sf.Cart.TotalItems())

	m.sf.Session.OnInvalidate(func(reason string) {
		m.send(invalidatedMsg{reason: reason})
	})

	logging.UI("Shop ready (theme=%s, signed in=%v)", m.theme.Name, m.sf.Session.IsAuthenticated())
	return m, nil
}

// Run starts the shop full screen and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	m.subscribed = true

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(c *config.Config) {
			m.send(configChangedMsg{cfg: c})
		})
		if err != nil {
			logging.Get(logging.CategoryUI).Warn("Config watcher unavailable: %v", err)
		} else if err := w.Start(ctx); err != nil {
			logging.Get(logging.CategoryUI).Warn("Config watcher failed to start: %v", err)
		} else {
			defer w.Stop()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.home.enter(m))
}

func (m *Model) applyTheme(t ui.Theme) {
	m.theme = t
	m.styles = ui.NewStyles(t)
	m.spinner = ui.NewSpinner(m.styles, m.spinner.Message)
}

func (m *Model) navItems() []ui.NavItem {
	account := ui.NavItem{ID: pageLogin, Label: "Login"}
	if m.sf.Session.IsAuthenticated() {
		account = ui.NavItem{ID: pageProfile, Label: "Profile"}
	}
	return []ui.NavItem{
		{ID: pageHome, Label: "Home"},
		{ID: pageServices, Label: "Services"},
		{ID: pageCart, Label: "Cart", Badge: true},
		{ID: pageCheckout, Label: "Checkout"},
		account,
		{ID: pageContact, Label: "Contact"},
	}
}

// syncNav swaps Login/Profile when the session changed and refreshes the
// cart badge.
func (m *Model) syncNav() tea.Cmd {
	var cmd tea.Cmd
	items := m.navItems()
	if m.nav.Items()[4].ID != items[4].ID {
		m.nav.SetItems(items)
		cmd = m.nav.SetActive(m.navIndex(m.current))
	}
	return tea.Batch(cmd, m.nav.SetCartCount(m.sf.Cart.TotalItems()))
}

func (m *Model) navIndex(id string) int {
	for i, it := range m.nav.Items() {
		if it.ID == id {
			return i
		}
	}
	switch id {
	case pageLogin, pageProfile:
		return 4
	}
	return -1
}

func (m *Model) page(id string) page {
	switch id {
	case pageServices:
		return m.services
	case pageCart:
		return m.cart
	case pageCheckout:
		return m.checkout
	case pageProfile:
		return m.profile
	case pageLogin:
		return m.login
	case pageContact:
		return m.contact
	default:
		return m.home
	}
}

// navigate switches pages. Profile and login resolve to whichever one
// matches the session.
func (m *Model) navigate(id string) tea.Cmd {
	signedIn := m.sf.Session.IsAuthenticated()
	switch {
	case id == pageProfile && !signedIn:
		id = pageLogin
	case id == pageLogin && signedIn:
		id = pageProfile
	}

	if id != m.current {
		logging.UIDebug("Navigate %s -> %s", m.current, id)
		m.page(m.current).blur()
	}
	m.current = id
	m.showHelp = false
	m.viewport.GotoTop()
	return tea.Batch(m.nav.SetActive(m.navIndex(id)), m.page(id).enter(m))
}

// requireSignIn sends the user to the login page and back to returnTo
// once signed in.
func (m *Model) requireSignIn(returnTo, notice string) tea.Cmd {
	m.login.returnTo = returnTo
	if notice != "" {
		m.setFlash(notice, true)
	}
	return m.navigate(pageLogin)
}

func (m *Model) setFlash(msg string, isErr bool) {
	m.flash, m.flashErr = msg, isErr
}

func (m *Model) busy() bool { return m.pending > 0 }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(asyncResult); ok && m.pending > 0 {
		m.pending--
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ui.FrameMsg:
		return m, m.nav.Update(msg)

	case invalidatedMsg:
		logging.UI("Session invalidated: %s", msg.reason)
		m.profile.reset()
		m.checkout.form = nil
		return m, tea.Batch(m.waitEvent(), m.syncNav(), m.requireSignIn(m.current, msgSessionExpired))

	case configChangedMsg:
		m.applyConfig(msg.cfg)
		return m, m.waitEvent()

	case themeSavedMsg:
		if msg.err != nil {
			logging.Get(logging.CategoryUI).Warn("Failed to save theme: %v", msg.err)
			m.setFlash("Could not save theme preference", true)
		}
		return m, nil

	case catalogLoadedMsg:
		return m, m.services.onLoaded(m, msg)
	case cartDoneMsg:
		return m, tea.Batch(m.cart.done(m, msg), m.syncNav())
	case ordersLoadedMsg:
		return m, m.profile.onLoaded(m, msg)
	case orderPlacedMsg:
		return m, tea.Batch(m.checkout.placed(m, msg), m.syncNav())
	case contactSentMsg:
		return m, m.contact.sent(m, msg)
	case authDoneMsg:
		return m, tea.Batch(m.syncNav(), m.login.done(m, msg))
	case logoutDoneMsg:
		m.setFlash("Signed out.", false)
		return m, tea.Batch(m.syncNav(), m.navigate(pageHome))
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.flash = ""
	p := m.page(m.current)

	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Theme):
		return m.toggleTheme()
	case key.Matches(msg, m.keys.Blur) && p.capturing():
		p.blur()
		return nil
	}

	if !p.capturing() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return nil
		case key.Matches(msg, m.keys.Jump):
			i := int(msg.Runes[0] - '1')
			if i < len(m.nav.Items()) {
				return m.navigate(m.nav.Items()[i].ID)
			}
			return nil
		case key.Matches(msg, m.keys.NextPage):
			return m.cycle(1)
		case key.Matches(msg, m.keys.PrevPage):
			return m.cycle(-1)
		}
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
	}
	return p.update(m, msg)
}

func (m *Model) cycle(delta int) tea.Cmd {
	items := m.nav.Items()
	i := (m.navIndex(m.current) + delta + len(items)) % len(items)
	return m.navigate(items[i].ID)
}

// toggleTheme flips light/dark and saves the choice for the next run.
func (m *Model) toggleTheme() tea.Cmd {
	m.applyTheme(m.theme.Toggle())
	name := m.theme.Name
	logging.UI("Theme -> %s", name)

	st, ctx := m.sf.Store, m.ctx
	return func() tea.Msg {
		return themeSavedMsg{err: st.SetTheme(ctx, name)}
	}
}

// applyConfig picks up an edited config.yaml. A saved theme preference
// still wins over the file.
func (m *Model) applyConfig(c *config.Config) {
	if c == nil {
		return
	}
	logging.Reconfigure(c.Logging.Settings())
	m.nav.SetAnimations(c.UI.Animations)

	saved, _ := m.sf.Store.Theme(m.ctx)
	if config.IsValidTheme(saved) || !config.IsValidTheme(c.UI.Theme) {
		return
	}
	if t := ui.ThemeFor(c.UI.Theme); t.Name != m.theme.Name {
		m.applyTheme(t)
		logging.UI("Theme -> %s (config reload)", t.Name)
	}
}

func (m *Model) resize() {
	h := m.height - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
	if h < 3 {
		h = 3
	}
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(m.width, h)
		return
	}
	m.viewport.Width, m.viewport.Height = m.width, h
}

func (m *Model) headerView() string {
	who := m.styles.Muted.Render("Guest")
	if u, ok := m.sf.Session.User(); ok {
		who = m.styles.Bold.Render(u.Name) + " " + m.styles.TierBadge(u.Tier())
	}
	top := ui.Logo(m.styles) + "   " + who
	return top + "\n" + m.nav.View(m.styles)
}

func (m *Model) footerView() string {
	var sb strings.Builder
	if m.busy() {
		sb.WriteString(m.spinner.View(m.styles) + "\n")
	}
	if m.flash != "" {
		sb.WriteString(ui.Flash(m.styles, m.flash, m.flashErr) + "\n")
	}
	if pk := m.page(m.current).keys(); len(pk) > 0 {
		sb.WriteString(m.help.ShortHelpView(pk) + "\n")
	}
	if m.showHelp {
		sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		sb.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return sb.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	header := m.headerView()
	body := m.page(m.current).view(m)
	footer := m.footerView()

	if m.height > 0 {
		m.resize()
		m.viewport.SetContent(body)
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.styles.RenderDivider(max(m.width, 40)),
		body,
		footer,
	)
}
