package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/calyx-systems/deskagent/internal/httpkit"
)

// StripeClient implements Processor against the Stripe REST API.
type StripeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStripeClient creates a Stripe-backed processor. baseURL defaults
// to the public API and is overridable for testing.
func NewStripeClient(baseURL, apiKey string) *StripeClient {
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	return &StripeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpkit.NewClient(),
	}
}

// Intent retrieves a payment intent by id.
func (c *StripeClient) Intent(ctx context.Context, id string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	intent.Currency = strings.ToUpper(intent.Currency)
	return &intent, nil
}

// Refund refunds the remaining amount of a payment intent. The API
// takes form-encoded parameters.
func (c *StripeClient) Refund(ctx context.Context, intentID, reason string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if reason != "" {
		form.Set("reason", reason)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/refunds", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var refund Refund
	if err := json.NewDecoder(resp.Body).Decode(&refund); err != nil {
		return nil, fmt.Errorf("decode refund: %w", err)
	}
	return &refund, nil
}

// decodeAPIError parses the processor's error envelope, falling back
// to the raw body when it isn't JSON.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body := httpkit.ReadErrorBody(resp.Body, 4096)
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Type = "api_error"
		apiErr.Message = body
	}
	return apiErr
}
