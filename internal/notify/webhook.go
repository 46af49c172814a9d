package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/calyx-systems/deskagent/internal/httpkit"
)

// WebhookSink posts events to a chat-ops webhook (Slack-compatible
// payload shape).
type WebhookSink struct {
	url        string
	channel    string
	httpClient *http.Client
}

// NewWebhookSink creates a webhook sink. channel may be empty to use
// the webhook's default.
func NewWebhookSink(url, channel string) *WebhookSink {
	return &WebhookSink{
		url:        url,
		channel:    channel,
		httpClient: httpkit.NewClient(),
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Channel string         `json:"channel,omitempty"`
	Text    string         `json:"text"`
	Blocks  []webhookBlock `json:"blocks,omitempty"`
}

type webhookBlock struct {
	Type string       `json:"type"`
	Text *webhookText `json:"text,omitempty"`
}

type webhookText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the event as a headline plus detail section.
func (s *WebhookSink) Notify(ctx context.Context, ev Event) error {
	payload := webhookPayload{
		Channel: s.channel,
		Text:    ev.Subject,
		Blocks: []webhookBlock{
			{
				Type: "header",
				Text: &webhookText{Type: "plain_text", Text: ev.Subject},
			},
			{
				Type: "section",
				Text: &webhookText{Type: "mrkdwn", Text: webhookDetail(ev)},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d: %s",
			resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 1024))
	}
	return nil
}

// webhookDetail formats the event body with the structured fields
// appended for the on-call reader.
func webhookDetail(ev Event) string {
	detail := ev.Body
	if ev.OrderID != "" {
		detail += fmt.Sprintf("\n*Order:* %s", ev.OrderID)
	}
	if ev.TicketID != "" {
		detail += fmt.Sprintf("\n*Ticket:* %s", ev.TicketID)
	}
	if ev.Amount > 0 {
		detail += fmt.Sprintf("\n*Amount:* %.2f %s", float64(ev.Amount)/100, ev.Currency)
	}
	return detail
}
