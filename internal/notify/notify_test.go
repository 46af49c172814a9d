package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calyx-systems/deskagent/internal/config"
)

func configForTest() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		StartTLS: true,
		From:     "Support <support@example.com>",
	}
}

type recordingSink struct {
	name   string
	events []Event
	err    error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Notify(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherEmitsToAllSinks(t *testing.T) {
	first := &recordingSink{name: "first", err: errors.New("broker down")}
	second := &recordingSink{name: "second"}
	d := NewDispatcher(discardLogger(), first, second)

	d.Emit(context.Background(), Event{Type: EventRefundProcessed, OrderID: "ORD1001"})

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("deliveries = %d, %d; want 1, 1", len(first.events), len(second.events))
	}
	if second.events[0].OrderID != "ORD1001" {
		t.Errorf("order id = %q", second.events[0].OrderID)
	}
}

func TestWebhookSink(t *testing.T) {
	var payload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "#support-alerts")
	err := s.Notify(context.Background(), Event{
		Type:     EventHighValueRefund,
		OrderID:  "ORD1002",
		Amount:   15000,
		Currency: "USD",
		Subject:  "High-value refund requires review",
		Body:     "Refund exceeds the automatic approval limit.",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if payload.Channel != "#support-alerts" {
		t.Errorf("channel = %q", payload.Channel)
	}
	if payload.Text != "High-value refund requires review" {
		t.Errorf("text = %q", payload.Text)
	}
	if len(payload.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(payload.Blocks))
	}
	detail := payload.Blocks[1].Text.Text
	if !strings.Contains(detail, "ORD1002") || !strings.Contains(detail, "150.00 USD") {
		t.Errorf("detail = %q", detail)
	}
}

func TestWebhookSinkServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "")
	if err := s.Notify(context.Background(), Event{Subject: "x"}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestComposeMessage(t *testing.T) {
	msg, err := composeMessage(
		"Support <support@example.com>",
		"alice@example.com",
		"Your refund has been processed",
		"Hi Alice,\n\nYour refund of **$45.00** is on its way.",
	)
	if err != nil {
		t.Fatalf("composeMessage: %v", err)
	}

	raw := string(msg)
	for _, want := range []string{
		"support@example.com",
		"To: <alice@example.com>",
		"Subject: Your refund has been processed",
		"multipart/alternative",
		"text/plain",
		"text/html",
		"<strong>$45.00</strong>",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestEmailSinkSkipsWithoutRecipient(t *testing.T) {
	s := NewEmailSink(configForTest())
	if err := s.Notify(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Errorf("Notify without recipient = %v, want nil", err)
	}
}

func TestMarkdownToPlain(t *testing.T) {
	got := markdownToPlain("# Update\n\nYour **order** has [shipped](https://example.com/track).")
	if strings.ContainsAny(got, "#*[]") {
		t.Errorf("formatting not stripped: %q", got)
	}
	if !strings.Contains(got, "shipped (https://example.com/track)") {
		t.Errorf("link not preserved: %q", got)
	}
}
