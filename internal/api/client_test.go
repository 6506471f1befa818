package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 300,
		"message": message,
		"data":    data,
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)

	_, err = NewClient(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Options{BaseURL: "http://localhost:5000/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", c.BaseURL())
}

func TestDo_HeadersAndEnvelope(t *testing.T) {
	var gotAuth, gotReqID, gotPath, gotCT string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotCT = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		writeEnvelope(w, http.StatusOK, "ok", map[string]interface{}{
			"user": map[string]string{"_id": "u1", "name": "Asha", "email": "asha@example.com", "membershipTier": "gold"},
		})
	})
	c.SetTokenSource(TokenFunc(func() string { return "tok-123" }))

	user, err := c.Auth().Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "/api/auth/me", gotPath)
	_, parseErr := uuid.Parse(gotReqID)
	assert.NoError(t, parseErr, "X-Request-ID should be a uuid")
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, TierGold, user.Tier())
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeEnvelope(w, http.StatusOK, "", map[string]interface{}{"services": []interface{}{}})
	})
	_, err := c.Services().List(context.Background(), ServiceQuery{})
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestDo_ErrorCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, "Pickup date is required", nil)
	})

	_, _, err := c.Orders().Create(context.Background(), CreateOrderRequest{})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Pickup date is required", UserMessage(err, "fallback"))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestDo_ErrorWithoutBodyUsesFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Services().Categories(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to load services. Please try again.", UserMessage(err, "Failed to load services. Please try again."))
	assert.Contains(t, err.Error(), "Internal Server Error")
}

func TestDo_TransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url})
	require.NoError(t, err)
	_, err = c.Cart().GetCart(context.Background())
	require.Error(t, err)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
	assert.Equal(t, 0, StatusCode(err))
}

func TestDo_UnauthorizedInvokesHook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, "Token expired", nil)
	})

	var calls int32
	var reason string
	c.OnUnauthorized(func(r string) {
		atomic.AddInt32(&calls, 1)
		reason = r
	})

	_, err := c.Cart().AddItem(context.Background(), "svc-1", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, reason, "/cart/items")
	assert.Equal(t, "Token expired", UserMessage(err, "x"))
}

func TestDo_TimeoutAppliedWithoutDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, err = c.Services().List(context.Background(), ServiceQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_CookiesAreKept(t *testing.T) {
	var sawCookie atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("sid"); err == nil && ck.Value == "abc" {
			sawCookie.Store(true)
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		writeEnvelope(w, http.StatusOK, "", nil)
	})

	require.NoError(t, c.Auth().Logout(context.Background()))
	require.NoError(t, c.Auth().Logout(context.Background()))
	assert.True(t, sawCookie.Load(), "second request should carry the cookie set by the first")
}

func TestDo_QueryEncodingErrorMarksSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusOK, "", nil)
	})

	// Query params must be a struct.
	_, err := c.do(context.Background(), http.MethodGet, "/orders", 42, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode query")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events(), "error should be recorded on the span")
}
