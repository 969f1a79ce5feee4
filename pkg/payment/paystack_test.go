package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/railline/train-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(1250000), body["amount"]) // NGN 12500 in kobo

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Authorization URL created",
				"data": map[string]interface{}{
					"authorization_url": "https://checkout.paystack.com/abc123",
					"access_code":       "abc123",
					"reference":         "PSK-001",
				},
			})
		}))
		defer server.Close()

		client := NewPaystackClient("sk_test_key", server.URL, "")
		result, err := client.Initialize(context.Background(), "rider@example.com", 12500)
		require.NoError(t, err)
		assert.Equal(t, "PSK-001", result.Reference)
		assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
	})

	t.Run("API Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  false,
				"message": "Invalid key",
			})
		}))
		defer server.Close()

		client := NewPaystackClient("bad_key", server.URL, "")
		_, err := client.Initialize(context.Background(), "rider@example.com", 5000)
		assert.ErrorIs(t, err, models.ErrPaymentGateway)
		assert.Contains(t, err.Error(), "Invalid key")
	})
}

func TestVerify(t *testing.T) {
	t.Run("Successful Transaction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/PSK-001", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Verification successful",
				"data": map[string]interface{}{
					"status":   "success",
					"amount":   1000000, // kobo
					"currency": "NGN",
					"paid_at":  "2026-08-30T10:00:00Z",
				},
			})
		}))
		defer server.Close()

		client := NewPaystackClient("sk_test_key", server.URL, "")
		result, err := client.Verify(context.Background(), "PSK-001")
		require.NoError(t, err)
		assert.True(t, result.Succeeded())
		assert.Equal(t, 10000.0, result.Amount) // converted back to NGN
		assert.Equal(t, "NGN", result.Currency)
	})

	t.Run("Failed Transaction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Verification successful",
				"data": map[string]interface{}{
					"status":   "failed",
					"amount":   0,
					"currency": "NGN",
				},
			})
		}))
		defer server.Close()

		client := NewPaystackClient("sk_test_key", server.URL, "")
		result, err := client.Verify(context.Background(), "PSK-002")
		require.NoError(t, err)
		assert.False(t, result.Succeeded())
	})

	t.Run("Gateway Unreachable", func(t *testing.T) {
		client := NewPaystackClient("sk_test_key", "http://127.0.0.1:1", "")
		_, err := client.Verify(context.Background(), "PSK-003")
		assert.ErrorIs(t, err, models.ErrPaymentGateway)
	})
}
