package system_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"vastram/internal/api"
	"vastram/internal/cart"
	"vastram/internal/catalog"
	"vastram/internal/checkout"
	"vastram/internal/config"
	"vastram/internal/mockbackend"
	"vastram/internal/store"
	"vastram/internal/system"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type env struct {
	backend *mockbackend.Server
	srv     *httptest.Server
	cfg     *config.Config
	dataDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := mockbackend.New(mockbackend.Options{Secret: []byte("e2e-secret"), BcryptCost: bcrypt.MinCost})
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL + mockbackend.BasePath
	cfg.API.Timeout = "5s"
	return &env{backend: backend, srv: srv, cfg: cfg, dataDir: t.TempDir()}
}

// boot starts a storefront sharing the env's data dir, so sessions persist
// between boots like separate runs of the CLI.
func (e *env) boot(t *testing.T) *system.Storefront {
	t.Helper()
	sf, err := system.Boot(context.Background(), e.cfg, e.dataDir, system.Options{Component: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close(context.Background()) })
	return sf
}

func register(t *testing.T, sf *system.Storefront, email string) {
	t.Helper()
	res, err := sf.Session.Register(context.Background(), api.RegisterRequest{
		Name: "Asha", Email: email, Password: "secret1", Address: "12 MG Road",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
}

func service(t *testing.T, sf *system.Storefront, id string) cart.Item {
	t.Helper()
	require.NoError(t, sf.Catalog.Load(context.Background()))
	svc, ok := sf.Catalog.Find(id)
	require.True(t, ok, "service %s", id)
	return catalog.ItemFor(svc)
}

func ids(s cart.Snapshot) map[string]int {
	out := map[string]int{}
	for _, it := range s.Items() {
		out[it.ServiceID] = it.Quantity
	}
	return out
}

func TestGuestCartIsDiscardedOnLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Another run leaves a blazer in the account's server cart.
	first := e.boot(t)
	register(t, first, "asha@example.com")
	_, err := first.Cart.Add(ctx, service(t, first, "svc-blazer"))
	require.NoError(t, err)
	first.Session.Logout(ctx)
	assert.True(t, first.Cart.Snapshot().IsEmpty())

	sf := e.boot(t)
	assert.Equal(t, cart.ModeGuest, sf.Cart.Mode())
	shirt := service(t, sf, "svc-shirt-wash")
	_, err = sf.Cart.Add(ctx, shirt)
	require.NoError(t, err)
	snap, err := sf.Cart.Add(ctx, shirt)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalItems())
	assert.Equal(t, int64(158), snap.TotalPrice())

	res, err := sf.Session.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Login successful", res.Message)

	assert.Equal(t, cart.ModeAuthenticated, sf.Cart.Mode())
	if diff := cmp.Diff(map[string]int{"svc-blazer": 1}, ids(sf.Cart.Snapshot())); diff != "" {
		t.Errorf("cart after login (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(349), sf.Cart.TotalPrice())
}

func TestAuthenticatedCartRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sf := e.boot(t)
	register(t, sf, "asha@example.com")

	shirt := service(t, sf, "svc-shirt-wash")
	saree := service(t, sf, "svc-saree-silk")

	_, err := sf.Cart.Add(ctx, shirt)
	require.NoError(t, err)
	_, err = sf.Cart.Add(ctx, saree)
	require.NoError(t, err)
	snap, err := sf.Cart.UpdateQuantity(ctx, shirt.ServiceID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalItems())
	assert.Equal(t, int64(3*79+399), snap.TotalPrice())

	snap, err = sf.Cart.UpdateQuantity(ctx, saree.ServiceID, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{shirt.ServiceID: 3}, ids(snap))

	snap, err = sf.Cart.Remove(ctx, shirt.ServiceID)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestAuthenticatedFailureKeepsSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sf := e.boot(t)
	register(t, sf, "asha@example.com")

	_, err := sf.Cart.Add(ctx, service(t, sf, "svc-blazer"))
	require.NoError(t, err)
	before := sf.Cart.Snapshot()

	e.backend.FailNext(http.MethodPost, "/cart/items", http.StatusInternalServerError, "Server error")
	snap, err := sf.Cart.Add(ctx, service(t, sf, "svc-shirt-wash"))
	require.Error(t, err)
	assert.Equal(t, cart.MsgAddFailed, sf.Cart.Err())
	assert.Equal(t, ids(before), ids(snap))
	assert.Equal(t, int64(349), sf.Cart.TotalPrice())
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sf := e.boot(t)

	_, err := sf.Checkout.Place(ctx, checkout.Form{})
	assert.ErrorIs(t, err, checkout.ErrNotSignedIn)

	register(t, sf, "asha@example.com")
	_, err = sf.Checkout.Place(ctx, checkout.Form{})
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	_, err = sf.Cart.Add(ctx, service(t, sf, "svc-shirt-wash"))
	require.NoError(t, err)
	_, err = sf.Cart.Add(ctx, service(t, sf, "svc-blazer"))
	require.NoError(t, err)
	assert.Equal(t, int64(428+77), sf.Checkout.Quote().Total)

	u, _ := sf.Session.User()
	form := checkout.NewForm(u)
	form.PickupDate = time.Now().AddDate(0, 0, 2).Format(checkout.DateLayout)

	receipt, err := sf.Checkout.Place(ctx, form)
	require.NoError(t, err)
	assert.Contains(t, receipt.Message, "Order placed successfully! Order Number: VST")
	assert.Equal(t, int64(505), receipt.Order.Total)
	assert.True(t, sf.Cart.Snapshot().IsEmpty())

	orders, err := sf.Client.Orders().List(ctx, api.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, receipt.Order.OrderNumber, orders[0].OrderNumber)
	assert.Equal(t, "12 MG Road", orders[0].PickupAddress)

	server, err := sf.Client.Cart().GetCart(ctx)
	require.NoError(t, err)
	assert.True(t, server.IsEmpty(), "server cart cleared too")
}

func TestUnauthorizedClearsSessionAndCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sf := e.boot(t)

	var navigated []string
	sf.Session.OnInvalidate(func(reason string) { navigated = append(navigated, reason) })

	register(t, sf, "asha@example.com")
	_, err := sf.Cart.Add(ctx, service(t, sf, "svc-blazer"))
	require.NoError(t, err)

	e.backend.RevokeAll()
	_, err = sf.Cart.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cart.ErrSessionChanged), "got %v", err)

	assert.False(t, sf.Session.IsAuthenticated())
	assert.Empty(t, sf.Session.Token())
	assert.Equal(t, cart.ModeGuest, sf.Cart.Mode())
	assert.True(t, sf.Cart.Snapshot().IsEmpty())
	assert.Empty(t, sf.Cart.Err())
	assert.Equal(t, []string{"GET /cart returned 401"}, navigated)

	_, found, err := sf.Store.LoadCredential(ctx)
	require.NoError(t, err)
	assert.False(t, found, "stored credential removed")
}

func TestRestoreAcrossRuns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.boot(t)
	register(t, first, "asha@example.com")
	_, err := first.Cart.Add(ctx, service(t, first, "svc-saree-silk"))
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := e.boot(t)
	require.True(t, second.Session.IsAuthenticated())
	u, _ := second.Session.User()
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, map[string]int{"svc-saree-silk": 1}, ids(second.Cart.Snapshot()))
	exp, ok := second.Session.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.After(time.Now()))
	require.NoError(t, second.Close(ctx))

	// The backend forgets every token: the next run starts signed out,
	// silently, with the stored credential gone.
	e.backend.RevokeAll()
	third := e.boot(t)
	assert.False(t, third.Session.IsAuthenticated())
	assert.Empty(t, third.Session.Err())
	assert.Equal(t, cart.ModeGuest, third.Cart.Mode())
	_, found, err := third.Store.LoadCredential(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRestoreSkipsExpiredCredential(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sf := e.boot(t)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u0001",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("e2e-secret"))
	require.NoError(t, err)
	require.NoError(t, sf.Store.SaveCredential(ctx, store.Credential{Token: expired}))
	require.NoError(t, sf.Close(ctx))

	next := e.boot(t)
	assert.False(t, next.Session.IsAuthenticated())
	_, found, err := next.Store.LoadCredential(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoot_InvalidBaseURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "ftp://example.com"
	_, err := system.Boot(context.Background(), cfg, t.TempDir(), system.Options{})
	assert.Error(t, err)
}

func TestBoot_StoreUnderDataDir(t *testing.T) {
	e := newEnv(t)
	sf := e.boot(t)
	assert.Equal(t, filepath.Join(e.dataDir, "vastram.db"), sf.Store.Path())
}
