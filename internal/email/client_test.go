package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOrderConfirmation(t *testing.T) {
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-api-key",
		From:    "orders@plushoff.com",
	})
	require.NoError(t, err)

	err = client.SendOrderConfirmation(context.Background(), "a@b.com", OrderConfirmationData{
		OrderID:      "order_1",
		CustomerName: "Asha",
		Total:        "499.99 INR",
		Items:        []OrderItem{{Title: "Plush Bear", Quantity: 1, Price: "499.99"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders@plushoff.com", got["from"])
	assert.Equal(t, []interface{}{"a@b.com"}, got["to"])
	assert.Equal(t, "Order Confirmation #order_1", got["subject"])
	assert.Contains(t, got["html"], "Plush Bear")
	assert.Contains(t, got["html"], "Asha")
}

func TestSendWelcomeSubject(t *testing.T) {
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", From: "hello@plushoff.com"})
	require.NoError(t, err)

	require.NoError(t, client.SendWelcome(context.Background(), "a@b.com", WelcomeData{CustomerName: "Asha"}))
	assert.Equal(t, "Welcome to Plushoff!", got["subject"])
}

func TestSendFailureSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", From: "hello@plushoff.com"})
	require.NoError(t, err)

	err = client.SendWelcome(context.Background(), "not-an-address", WelcomeData{CustomerName: "Asha"})
	assert.Error(t, err)
}
