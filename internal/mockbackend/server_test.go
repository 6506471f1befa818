package mockbackend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vastram/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type response struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Options{Secret: []byte("test-secret"), BcryptCost: bcrypt.MinCost})
}

func call(t *testing.T, s *Server, method, path, token string, body interface{}) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, BasePath+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	out.Status = rec.Code
	return out
}

func decode(t *testing.T, r response, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

func registerUser(t *testing.T, s *Server, email string) string {
	t.Helper()
	r := call(t, s, http.MethodPost, "/auth/register", "", api.RegisterRequest{
		Name: "Asha", Email: email, Password: "secret1", Address: "12 MG Road",
	})
	require.Equal(t, http.StatusCreated, r.Status, r.Message)
	var auth authPayload
	decode(t, r, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "asha@example.com")

	r := call(t, s, http.MethodPost, "/auth/register", "", api.RegisterRequest{Name: "A", Email: "ASHA@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "User already exists with this email", r.Message)

	r = call(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Invalid email or password", r.Message)

	r = call(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "Login successful", r.Message)

	r = call(t, s, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	var me struct{ User api.User }
	decode(t, r, &me)
	assert.Equal(t, "asha@example.com", me.User.Email)
	assert.Equal(t, api.TierBronze, me.User.MembershipTier)

	r = call(t, s, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	r = call(t, s, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status, "logged-out token is revoked")

	r = call(t, s, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	r = call(t, s, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	r := call(t, s, http.MethodPost, "/auth/register", "", api.RegisterRequest{Email: "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	r = call(t, s, http.MethodPost, "/auth/register", "", api.RegisterRequest{Name: "X", Email: "x@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestRevokeAll(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "asha@example.com")
	s.RevokeAll()
	r := call(t, s, http.MethodGet, "/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Invalid token", r.Message)
}

func TestServices(t *testing.T) {
	s := newTestServer(t)

	r := call(t, s, http.MethodGet, "/api/services", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	var list struct{ Services []api.Service }
	decode(t, r, &list)
	assert.Len(t, list.Services, 9, "inactive services are hidden")

	r = call(t, s, http.MethodGet, "/api/services?category=suits", "", nil)
	decode(t, r, &list)
	assert.Len(t, list.Services, 2)

	r = call(t, s, http.MethodGet, "/api/services?search=saree", "", nil)
	decode(t, r, &list)
	require.Len(t, list.Services, 1)
	assert.Equal(t, "svc-saree-silk", list.Services[0].ID)

	r = call(t, s, http.MethodGet, "/api/services/categories", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	var cats struct{ Categories []api.Category }
	decode(t, r, &cats)
	require.Len(t, cats.Categories, 4)
	assert.Equal(t, api.Category{Name: "suits", Count: 2}, cats.Categories[0])

	r = call(t, s, http.MethodGet, "/api/services/svc-blazer", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	r = call(t, s, http.MethodGet, "/api/services/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "Service not found", r.Message)
}

type cartView struct {
	Cart struct {
		Items []struct {
			Service  struct{ ID string `json:"_id"` }
			Price    int64
			Quantity int
		}
		TotalItems int
		TotalPrice int64
	}
}

func TestCart(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "asha@example.com")

	r := call(t, s, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	var view cartView
	r = call(t, s, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	decode(t, r, &view)
	assert.Empty(t, view.Cart.Items)

	call(t, s, http.MethodPost, "/cart/items", token, map[string]interface{}{"serviceId": "svc-shirt-wash", "quantity": 1})
	r = call(t, s, http.MethodPost, "/cart/items", token, map[string]interface{}{"serviceId": "svc-shirt-wash", "quantity": 1})
	require.Equal(t, http.StatusOK, r.Status)
	decode(t, r, &view)
	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, 2, view.Cart.Items[0].Quantity)
	assert.Equal(t, int64(158), view.Cart.TotalPrice)

	r = call(t, s, http.MethodPost, "/cart/items", token, map[string]interface{}{"serviceId": "svc-carpet", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, r.Status, "inactive services cannot be added")

	r = call(t, s, http.MethodPut, "/cart/items/svc-shirt-wash", token, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, r.Status)
	decode(t, r, &view)
	assert.Equal(t, 5, view.Cart.TotalItems)

	r = call(t, s, http.MethodPut, "/cart/items/svc-shirt-wash", token, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	r = call(t, s, http.MethodPut, "/cart/items/svc-blazer", token, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, r.Status)

	r = call(t, s, http.MethodDelete, "/cart/items/svc-shirt-wash", token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	decode(t, r, &view)
	assert.Empty(t, view.Cart.Items)

	call(t, s, http.MethodPost, "/cart/items", token, map[string]interface{}{"serviceId": "svc-blazer", "quantity": 1})
	r = call(t, s, http.MethodDelete, "/cart", token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	r = call(t, s, http.MethodGet, "/cart", token, nil)
	decode(t, r, &view)
	assert.Empty(t, view.Cart.Items)
}

func TestOrders(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "asha@example.com")

	order := api.CreateOrderRequest{
		Items:           []api.CreateOrderItem{{Service: "svc-shirt-wash", Quantity: 2}, {Service: "svc-blazer", Quantity: 1}},
		PickupAddress:   "12 MG Road",
		PickupDate:      "2030-01-02",
		PickupTime:      "10:00",
		DeliveryAddress: "12 MG Road",
	}
	r := call(t, s, http.MethodPost, "/orders", token, order)
	require.Equal(t, http.StatusCreated, r.Status, r.Message)
	assert.Equal(t, "Order created successfully", r.Message)
	var created struct{ Order api.Order }
	decode(t, r, &created)
	assert.Equal(t, int64(507), created.Order.Subtotal)
	assert.Equal(t, int64(91), created.Order.Tax)
	assert.Equal(t, int64(598), created.Order.Total)
	assert.Equal(t, api.StatusPending, created.Order.Status)
	assert.NotEmpty(t, created.Order.OrderNumber)
	assert.Equal(t, "Shirt Wash & Iron (2), Blazer Dry Clean (1)", created.Order.ItemsSummary())

	r = call(t, s, http.MethodPost, "/orders", token, api.CreateOrderRequest{Items: order.Items})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	r = call(t, s, http.MethodPost, "/orders", token, api.CreateOrderRequest{PickupAddress: "x"})
	assert.Equal(t, http.StatusBadRequest, r.Status)

	second := order
	second.Items = []api.CreateOrderItem{{Service: "svc-lehenga", Quantity: 1}}
	call(t, s, http.MethodPost, "/orders", token, second)

	require.True(t, s.SetOrderStatus(created.Order.OrderNumber, api.StatusDelivered))

	r = call(t, s, http.MethodGet, "/orders", token, nil)
	var list struct{ Orders []api.Order }
	decode(t, r, &list)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "svc-lehenga", list.Orders[0].Items[0].Service, "newest first")

	r = call(t, s, http.MethodGet, "/orders?status=delivered", token, nil)
	decode(t, r, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "out for delivery", api.Order{Status: api.StatusOutForDelivery}.StatusLabel())

	r = call(t, s, http.MethodGet, "/orders?limit=1&page=2", token, nil)
	decode(t, r, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.Order.ID, list.Orders[0].ID)

	r = call(t, s, http.MethodGet, "/orders/"+created.Order.ID, token, nil)
	assert.Equal(t, http.StatusOK, r.Status)
	r = call(t, s, http.MethodGet, "/orders/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, r.Status)

	other := registerUser(t, s, "ravi@example.com")
	r = call(t, s, http.MethodGet, "/orders/"+created.Order.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, r.Status, "orders are per user")
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "asha@example.com")

	r := call(t, s, http.MethodPut, "/users/profile", token, api.ProfileUpdate{Phone: "+91 99000 11111"})
	require.Equal(t, http.StatusOK, r.Status)

	require.True(t, s.SetTier("asha@example.com", api.TierGold))
	r = call(t, s, http.MethodGet, "/users/profile", token, nil)
	var out struct{ User api.User }
	decode(t, r, &out)
	assert.Equal(t, "+91 99000 11111", out.User.Phone)
	assert.Equal(t, "12 MG Road", out.User.Address)
	assert.Equal(t, api.TierGold, out.User.MembershipTier)
}

func TestFailNext(t *testing.T) {
	s := newTestServer(t)
	s.FailNext(http.MethodGet, "/api/services", http.StatusInternalServerError, "Server error")

	r := call(t, s, http.MethodGet, "/api/services", "", nil)
	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.False(t, r.Success)
	assert.Equal(t, "Server error", r.Message)

	r = call(t, s, http.MethodGet, "/api/services", "", nil)
	assert.Equal(t, http.StatusOK, r.Status, "faults fire once")
}

func TestDemoUserAndNoRoute(t *testing.T) {
	s := New(Options{SeedDemoUser: true, BcryptCost: bcrypt.MinCost})
	r := call(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": DemoUser.Email, "password": DemoUser.Password})
	assert.Equal(t, http.StatusOK, r.Status)

	r = call(t, s, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
}
