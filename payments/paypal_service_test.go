package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayPalServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		units := body["purchase_units"].([]interface{})
		amount := units[0].(map[string]interface{})["amount"].(map[string]interface{})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ORDER-" + amount["value"].(string),
			"status": OrderCreated,
			"links": []map[string]string{
				{"rel": "self", "href": "https://paypal.test/self"},
				{"rel": "approve", "href": "https://paypal.test/approve"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-OK/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "ORDER-OK", "status": OrderCompleted})
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-BAD/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"name": "UNPROCESSABLE_ENTITY", "message": "ORDER_NOT_APPROVED"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateAndCaptureOrder(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(srv.URL, "client", "secret")
	ctx := context.Background()

	order, err := client.CreateOrder(ctx, 19.5, "USD", "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-19.50", order.ID)
	assert.Equal(t, "https://paypal.test/approve", order.ApproveURL)

	captured, err := client.CaptureOrder(ctx, "ORDER-OK")
	require.NoError(t, err)
	assert.Equal(t, OrderCompleted, captured.Status)

	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "token should be cached between calls")
}

func TestCaptureOrderError(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(srv.URL, "client", "secret")

	_, err := client.CaptureOrder(context.Background(), "ORDER-BAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_NOT_APPROVED")
}

func TestTokenRejected(t *testing.T) {
	var tokenCalls int32
	srv := newPayPalServer(t, &tokenCalls)
	client := NewPayPalClient(srv.URL, "client", "wrong")

	_, err := client.CreateOrder(context.Background(), 10, "USD", "txn-2")
	assert.Error(t, err)
}
