package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaystackClient_InitializeDeposit(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_123"}}`))
	}))
	defer srv.Close()

	client := NewPaystackClient("sk_test_123", srv.URL, "https://app.example.com/callback")
	init, err := client.InitializeDeposit(context.Background(), InitializeRequest{
		Email:    "ada@example.com",
		Amount:   5000,
		Currency: "NGN",
		Metadata: map[string]string{"user_id": "u1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ref_123", init.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", init.AuthorizationURL)
	assert.Equal(t, "abc", init.AccessCode)

	assert.Equal(t, "ada@example.com", got["email"])
	assert.Equal(t, float64(5000), got["amount"])
	assert.Equal(t, "NGN", got["currency"])
	assert.Equal(t, "https://app.example.com/callback", got["callback_url"])
	assert.Equal(t, map[string]interface{}{"user_id": "u1"}, got["metadata"])
}

func TestPaystackClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rejected envelope", status: http.StatusOK, body: `{"status":false,"message":"Invalid key"}`},
		{name: "http error", status: http.StatusUnauthorized, body: `{"status":false,"message":"Invalid key"}`},
		{name: "garbage", status: http.StatusBadGateway, body: `<html>bad gateway</html>`},
		{name: "missing reference", status: http.StatusOK, body: `{"status":true,"message":"ok","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewPaystackClient("sk_test_123", srv.URL, "")
			_, err := client.InitializeDeposit(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 100})
			assert.ErrorIs(t, err, ErrProvider)
		})
	}
}

func TestPaystackClient_VerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ref_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref_123","amount":5000,"currency":"NGN"}}`))
	}))
	defer srv.Close()

	v, err := NewPaystackClient("sk_test_123", srv.URL+"/", "").VerifyTransaction(context.Background(), "ref_123")
	require.NoError(t, err)
	assert.Equal(t, "success", v.Status)
	assert.Equal(t, "ref_123", v.Reference)
	assert.Equal(t, int64(5000), v.Amount)
	assert.Equal(t, "NGN", v.Currency)
}
