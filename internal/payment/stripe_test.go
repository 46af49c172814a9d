package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStripeIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment_intents/pi_123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":              "pi_123",
			"amount":          4500,
			"amount_refunded": 500,
			"currency":        "usd",
			"status":          "succeeded",
		})
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test")
	intent, err := c.Intent(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("Intent: %v", err)
	}
	if intent.Currency != "USD" {
		t.Errorf("currency = %q, want upper-cased USD", intent.Currency)
	}
	if intent.Refundable() != 4000 {
		t.Errorf("refundable = %d, want 4000", intent.Refundable())
	}
}

func TestStripeRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refunds" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("payment_intent") != "pi_123" {
			t.Errorf("payment_intent = %q", r.PostForm.Get("payment_intent"))
		}
		if r.PostForm.Get("reason") != ReasonRequestedByCustomer {
			t.Errorf("reason = %q", r.PostForm.Get("reason"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "re_456",
			"amount": 4000,
			"status": "succeeded",
		})
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test")
	refund, err := c.Refund(context.Background(), "pi_123", ReasonRequestedByCustomer)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refund.ID != "re_456" || refund.Status != "succeeded" {
		t.Errorf("refund = %+v", refund)
	}
}

func TestStripeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "No such payment_intent",
			},
		})
	}))
	defer srv.Close()

	c := NewStripeClient(srv.URL, "sk_test")
	_, err := c.Intent(context.Background(), "pi_missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired || apiErr.Message != "No such payment_intent" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
