package shop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vastram/cmd/vastram/ui"
	"vastram/internal/config"
	"vastram/internal/contact"
	"vastram/internal/mockbackend"
	"vastram/internal/system"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	backend *mockbackend.Server
	sf      *system.Storefront
	m       *Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := mockbackend.New(mockbackend.Options{
		Secret:       []byte("shop-secret"),
		SeedDemoUser: true,
		BcryptCost:   bcrypt.MinCost,
	})
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL + mockbackend.BasePath
	cfg.API.Timeout = "5s"

	sf, err := system.Boot(context.Background(), cfg, t.TempDir(), system.Options{Component: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close(context.Background()) })

	m, err := New(context.Background(), Options{Storefront: sf, Theme: ui.ThemeLight})
	require.NoError(t, err)
	return &harness{backend: backend, sf: sf, m: m}
}

// drain runs cmd and feeds every resulting message back into the model
// until no work is left. Spinner ticks and animation frames are dropped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg, ui.FrameMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func keyMsg(k string) tea.KeyMsg {
	types := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"esc":       tea.KeyEsc,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"ctrl+s":    tea.KeyCtrlS,
		"ctrl+r":    tea.KeyCtrlR,
		"ctrl+t":    tea.KeyCtrlT,
		"ctrl+c":    tea.KeyCtrlC,
	}
	if kt, ok := types[k]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		drain(t, m, cmd)
	}
}

// typeText sends s as a single paste-like key message.
func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	drain(t, m, cmd)
}

func (h *harness) signInDemo(t *testing.T) {
	t.Helper()
	press(t, h.m, "5")
	require.Equal(t, pageLogin, h.m.current)
	typeText(t, h.m, mockbackend.DemoUser.Email)
	press(t, h.m, "tab")
	typeText(t, h.m, mockbackend.DemoUser.Password)
	press(t, h.m, "enter")
	require.True(t, h.sf.Session.IsAuthenticated(), "flash: %s", h.m.flash)
}

func TestNew_RequiresStorefront(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestView_GuestHeader(t *testing.T) {
	h := newHarness(t)
	out := h.m.View()
	assert.Contains(t, out, "VASTRAM")
	assert.Contains(t, out, "Guest")
	assert.Contains(t, out, "Login")
	assert.Contains(t, out, "Vastram: Professional Laundry & Dry Cleaning")
}

func TestView_WithWindowSize(t *testing.T) {
	h := newHarness(t)
	h.m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := h.m.View()
	assert.Contains(t, out, "Home")
	assert.LessOrEqual(t, strings.Count(out, "\n"), 40)
}

func TestJumpKeys(t *testing.T) {
	h := newHarness(t)

	press(t, h.m, "2")
	assert.Equal(t, pageServices, h.m.current)
	assert.Equal(t, 1, h.m.nav.Active())
	assert.True(t, h.m.services.loaded)

	press(t, h.m, "5")
	assert.Equal(t, pageLogin, h.m.current, "signed-out users get the login page")

	press(t, h.m, "esc", "right")
	assert.Equal(t, pageContact, h.m.current)
	press(t, h.m, "right")
	assert.Equal(t, pageHome, h.m.current, "wraps around")
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.m.View())
}

func TestHome_CategoryLinkFiltersServices(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "down", "down", "enter")

	assert.Equal(t, pageServices, h.m.current)
	assert.Equal(t, "traditional", h.m.services.category)
	out := h.m.View()
	assert.Contains(t, out, "Traditional Wear (3)")
	assert.Contains(t, out, "Silk Saree Dry Clean")
	assert.NotContains(t, out, "Blazer Dry Clean")
}

func TestServices_CycleCategory(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "2", "tab")
	assert.Equal(t, "suits", h.m.services.category)
	assert.Contains(t, h.m.View(), "Suits & Formal (2)")

	press(t, h.m, "shift+tab", "shift+tab")
	assert.Equal(t, "home-essentials", h.m.services.category)
}

func TestServices_LoadFailureAndRetry(t *testing.T) {
	h := newHarness(t)
	h.backend.FailNext(http.MethodGet, "/api/services", http.StatusInternalServerError, "Server error")

	press(t, h.m, "2")
	assert.False(t, h.m.services.loaded)
	assert.Contains(t, h.m.View(), "Failed to load services. Please try again.")

	press(t, h.m, "r")
	assert.True(t, h.m.services.loaded)
	assert.NotContains(t, h.m.View(), "Failed to load services")
}

func TestServices_GuestAddUpdatesBadge(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "2", "enter")

	snap := h.sf.Cart.Snapshot()
	require.Equal(t, 1, snap.Len())
	item, ok := snap.Get("svc-suit-2pc")
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, h.m.nav.CartCount())
	assert.Equal(t, "Added Two-Piece Suit Dry Clean to cart", h.m.flash)
	assert.False(t, h.m.flashErr)
	assert.Zero(t, h.m.pending)
}

func TestCart_GuestQuantityAndRemove(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "2", "down", "enter", "3")
	require.Equal(t, pageCart, h.m.current)

	out := h.m.View()
	assert.Contains(t, out, "Shopping Cart (1 item)")
	assert.Contains(t, out, "Order Summary")
	assert.Contains(t, out, "GST (18%)")

	press(t, h.m, "+", "+")
	item, _ := h.sf.Cart.Snapshot().Get("svc-blazer")
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 3, h.m.nav.CartCount())
	assert.Contains(t, h.m.View(), "₹1,047")

	press(t, h.m, "-")
	item, _ = h.sf.Cart.Snapshot().Get("svc-blazer")
	assert.Equal(t, 2, item.Quantity)

	press(t, h.m, "x")
	assert.True(t, h.sf.Cart.Snapshot().IsEmpty())
	assert.Equal(t, "Removed Blazer Dry Clean from cart", h.m.flash)
	assert.Contains(t, h.m.View(), "Your cart is empty")

	press(t, h.m, "enter")
	assert.Equal(t, pageServices, h.m.current, "empty cart links to services")
}

func TestCheckout_SignedOutGoesToLogin(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "4")

	assert.Equal(t, pageLogin, h.m.current)
	assert.Equal(t, pageCheckout, h.m.login.returnTo)
	assert.True(t, h.m.flashErr)
	assert.Equal(t, "Please sign in to place an order.", h.m.flash)
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "5")
	typeText(t, h.m, mockbackend.DemoUser.Email)
	press(t, h.m, "tab")
	typeText(t, h.m, "wrong-password")
	press(t, h.m, "enter")

	assert.False(t, h.sf.Session.IsAuthenticated())
	assert.Equal(t, pageLogin, h.m.current)
	assert.True(t, h.m.flashErr)
	assert.NotEmpty(t, h.m.flash)
}

func TestLogin_MissingFields(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "5", "ctrl+s")
	assert.Equal(t, "Please fill in email, password", h.m.flash)
	assert.True(t, h.m.flashErr)
}

func TestLogin_SwapsNavAndGreets(t *testing.T) {
	h := newHarness(t)
	h.signInDemo(t)

	assert.Equal(t, pageHome, h.m.current)
	assert.Equal(t, "Welcome back, Demo Customer!", h.m.flash)
	assert.Equal(t, pageProfile, h.m.nav.Items()[4].ID)
	assert.Contains(t, h.m.View(), "Demo Customer")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "5", "ctrl+r")
	require.True(t, h.m.login.register)
	assert.Contains(t, h.m.View(), "Create Account")

	typeText(t, h.m, "Ravi")
	press(t, h.m, "tab")
	typeText(t, h.m, "ravi@example.com")
	press(t, h.m, "tab")
	typeText(t, h.m, "secret1")
	press(t, h.m, "ctrl+s")

	require.True(t, h.sf.Session.IsAuthenticated())
	assert.Equal(t, "Welcome to Vastram, Ravi!", h.m.flash)
}

func TestCheckout_PlacesOrderAndShowsProfile(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "4")
	require.Equal(t, pageLogin, h.m.current)
	typeText(t, h.m, mockbackend.DemoUser.Email)
	press(t, h.m, "tab")
	typeText(t, h.m, mockbackend.DemoUser.Password)
	press(t, h.m, "enter")
	require.True(t, h.sf.Session.IsAuthenticated())

	// Empty cart: checkout bounces back to the cart.
	assert.Equal(t, pageCart, h.m.current)

	press(t, h.m, "2", "enter", "enter", "4")
	require.Equal(t, pageCheckout, h.m.current)
	require.NotNil(t, h.m.checkout.form)

	f := h.m.checkout.formValue()
	assert.Equal(t, mockbackend.DemoUser.Address, f.PickupAddress)
	assert.Equal(t, mockbackend.DemoUser.Address, f.DeliveryAddress)
	assert.Equal(t, "10:00", f.PickupTime)
	assert.Equal(t, time.Now().AddDate(0, 0, 1).Format("2006-01-02"), f.PickupDate)
	assert.Contains(t, h.m.View(), "Two-Piece Suit Dry Clean × 2")

	// Move to the time slot and pick the next one.
	press(t, h.m, "tab", "tab", "right")
	assert.Equal(t, "11:00", h.m.checkout.formValue().PickupTime)

	press(t, h.m, "ctrl+s")
	assert.Equal(t, pageProfile, h.m.current)
	assert.False(t, h.m.flashErr, h.m.flash)
	assert.Contains(t, h.m.flash, "Order placed successfully! Order Number:")
	assert.True(t, h.sf.Cart.Snapshot().IsEmpty())
	assert.Zero(t, h.m.nav.CartCount())

	require.Len(t, h.m.profile.orders, 1)
	out := h.m.View()
	assert.Contains(t, out, "Recent Orders")
	assert.Contains(t, out, "Two-Piece Suit Dry Clean (2)")

	press(t, h.m, "enter")
	assert.Contains(t, h.m.View(), "Pickup address:")
}

func TestCheckout_InvalidDate(t *testing.T) {
	h := newHarness(t)
	h.signInDemo(t)
	press(t, h.m, "2", "enter", "4")
	require.Equal(t, pageCheckout, h.m.current)

	h.m.checkout.form.fields[fieldPickupDate].set("2001-01-01")
	press(t, h.m, "ctrl+s")

	assert.Equal(t, pageCheckout, h.m.current)
	assert.True(t, h.m.flashErr)
	assert.Contains(t, h.m.flash, "Please check your details: pickup date must be")
	assert.False(t, h.sf.Cart.Snapshot().IsEmpty())
}

func TestProfile_OrderHistoryFailureAndLogout(t *testing.T) {
	h := newHarness(t)
	h.signInDemo(t)

	h.backend.FailNext(http.MethodGet, "/orders", http.StatusInternalServerError, "Server error")
	press(t, h.m, "5")
	require.Equal(t, pageProfile, h.m.current)
	out := h.m.View()
	assert.Contains(t, out, msgOrdersFailed)
	assert.Contains(t, out, "Vastram Membership Benefits")

	press(t, h.m, "r")
	assert.Contains(t, h.m.View(), msgNoOrders)

	press(t, h.m, "o")
	assert.False(t, h.sf.Session.IsAuthenticated())
	assert.Equal(t, pageHome, h.m.current)
	assert.Equal(t, "Signed out.", h.m.flash)
	assert.Equal(t, pageLogin, h.m.nav.Items()[4].ID)
}

func TestBenefits(t *testing.T) {
	assert.Len(t, benefits("bronze"), 3)
	assert.Contains(t, benefits("silver"), "Express service available")
	assert.Contains(t, benefits("gold"), "10% discount on bulk orders")
	assert.NotContains(t, benefits("gold"), "24/7 customer support")
	assert.Len(t, benefits("platinum"), 6)
}

func TestInvalidationRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	h.signInDemo(t)
	press(t, h.m, "2", "enter")

	h.backend.RevokeAll()
	press(t, h.m, "3")

	var msg tea.Msg
	select {
	case msg = <-h.m.events:
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation event")
	}
	_, cmd := h.m.Update(msg)
	drain(t, h.m, cmd)

	assert.False(t, h.sf.Session.IsAuthenticated())
	assert.Equal(t, pageLogin, h.m.current)
	assert.Equal(t, pageCart, h.m.login.returnTo)
	assert.Equal(t, msgSessionExpired, h.m.flash)
	assert.Equal(t, pageLogin, h.m.nav.Items()[4].ID)
	assert.Zero(t, h.m.nav.CartCount())
}

func TestContact(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "6", "enter")
	require.True(t, h.m.contact.capturing())

	typeText(t, h.m, "Meera")
	press(t, h.m, "tab")
	typeText(t, h.m, "not-an-email")
	press(t, h.m, "tab", "tab")
	typeText(t, h.m, "Do you press silk?")
	press(t, h.m, "enter")
	assert.True(t, h.m.flashErr)
	assert.Contains(t, h.m.flash, "Please check your message")

	h.m.contact.form.fields[1].set("meera@example.com")
	press(t, h.m, "ctrl+s")
	assert.False(t, h.m.flashErr)
	assert.Equal(t, contact.MsgThanks, h.m.flash)
	assert.False(t, h.m.contact.capturing())
	assert.Empty(t, h.m.contact.form.fields[0].value())
}

func TestContact_EscReleasesKeys(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "6", "enter")
	typeText(t, h.m, "q")
	assert.Equal(t, pageContact, h.m.current, "q types while a field is focused")

	press(t, h.m, "esc", "1")
	assert.Equal(t, pageHome, h.m.current)
}

func TestThemeToggleIsSaved(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ui.ThemeLight, h.m.theme.Name)

	press(t, h.m, "ctrl+t")
	assert.Equal(t, ui.ThemeDark, h.m.theme.Name)

	saved, err := h.sf.Store.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ui.ThemeDark, saved)

	again, err := New(context.Background(), Options{Storefront: h.sf, Theme: ui.ThemeLight})
	require.NoError(t, err)
	assert.Equal(t, ui.ThemeDark, again.theme.Name, "saved preference wins")

	forced, err := New(context.Background(), Options{Storefront: h.sf, Theme: ui.ThemeLight, ForceTheme: true})
	require.NoError(t, err)
	assert.Equal(t, ui.ThemeLight, forced.theme.Name)
}

func TestConfigReload(t *testing.T) {
	h := newHarness(t)
	c := config.DefaultConfig()
	c.UI.Theme = config.ThemeDark
	c.UI.Animations = false

	h.m.Update(configChangedMsg{cfg: c})
	assert.Equal(t, ui.ThemeDark, h.m.theme.Name)
	assert.Nil(t, h.m.nav.SetActive(2), "animations off")
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t)
	press(t, h.m, "?")
	assert.True(t, h.m.showHelp)
	assert.Contains(t, h.m.View(), "leave form")
	press(t, h.m, "2")
	assert.False(t, h.m.showHelp)
}
