package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := map[string]int64{
		"1250.50": 125050,
		"0.01":    1,
		"10":      1000,
		"19.995":  2000,
	}
	for in, want := range tests {
		assert.Equal(t, want, MinorUnits(decimal.RequireFromString(in)), in)
	}
}

func TestDisabled(t *testing.T) {
	p := Disabled("paypal")
	assert.Equal(t, "paypal", p.Name())

	_, err := p.CreateOrder(context.Background(), OrderRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.CaptureOrder(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = p.CreateIntent(context.Background(), decimal.NewFromInt(1), "usd")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func paypalServer(t *testing.T, tokenCalls *int32, captured *map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":32400}`))
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(captured)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[` +
			`{"href":"https://paypal.example/approve","rel":"approve","method":"GET"}]}`))
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPayPalCreateAndCapture(t *testing.T) {
	var (
		tokenCalls int32
		body       map[string]any
	)
	srv := paypalServer(t, &tokenCalls, &body)
	p, err := NewPayPal("client", "secret", "sandbox", srv.URL)
	require.NoError(t, err)

	order, err := p.CreateOrder(context.Background(), OrderRequest{
		Amount:     decimal.RequireFromString("1250.5"),
		Currency:   "USD",
		PayeeEmail: "owner@example.com",
		ReturnURL:  "http://localhost:3000/payment-success",
		CancelURL:  "http://localhost:3000/payment",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)
	assert.Equal(t, "CREATED", order.Status)
	require.Len(t, order.Links, 1)
	assert.Equal(t, "approve", order.Links[0].Rel)

	assert.Equal(t, "CAPTURE", body["intent"])
	units := body["purchase_units"].([]any)
	unit := units[0].(map[string]any)
	assert.Equal(t, "1250.50", unit["amount"].(map[string]any)["value"])
	assert.Equal(t, "owner@example.com", unit["payee"].(map[string]any)["email_address"])

	captured, err := p.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", captured.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestPayPalRequiresPayee(t *testing.T) {
	p, err := NewPayPal("client", "secret", "sandbox", "")
	require.NoError(t, err)
	_, err = p.CreateOrder(context.Background(), OrderRequest{Amount: decimal.NewFromInt(5), Currency: "USD"})
	assert.ErrorIs(t, err, ErrPayeeNotLinked)
}

func TestStripeCreateIntent(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":125050,"currency":"usd",` +
			`"client_secret":"pi_123_secret_abc"}`))
	}))
	defer srv.Close()

	s := NewStripe("sk_test_123", srv.URL)
	intent, err := s.CreateIntent(context.Background(), decimal.RequireFromString("1250.50"), "USD")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, []string{"125050"}, form["amount"])
	assert.Equal(t, []string{"usd"}, form["currency"])
	assert.Equal(t, []string{"true"}, form["automatic_payment_methods[enabled]"])
}
