package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedOrder(t *testing.T, s *Store, orderID, status string, amount float64) {
	t.Helper()
	if err := s.InsertOrder(Order{
		OrderID:     orderID,
		CustomerID:  "CUST001",
		ProductName: "Premium Subscription",
		Status:      status,
		Amount:      amount,
	}); err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}
}

func TestOrderLookup(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s, "ORD0001", StatusDelivered, 45)

	o, err := s.Order("ORD0001")
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if o.Status != StatusDelivered || o.ProductName != "Premium Subscription" {
		t.Errorf("unexpected order: %+v", o)
	}

	_, err = s.Order("ORD9999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing order error = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrderStatusProgression(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"forward one step", StatusPending, StatusProcessing, false},
		{"forward skip", StatusPending, StatusShipped, false},
		{"same status", StatusShipped, StatusShipped, false},
		{"backward", StatusShipped, StatusProcessing, true},
		{"out of cancelled", StatusCancelled, StatusProcessing, true},
		{"out of refunded", StatusRefunded, StatusDelivered, true},
		{"direct to cancelled", StatusPending, StatusCancelled, true},
		{"direct to refunded", StatusPending, StatusRefunded, true},
		{"unknown status", StatusPending, "lost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			seedOrder(t, s, "ORD0001", tt.from, 45)

			err := s.UpdateOrderStatus("ORD0001", tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateOrderStatus(%s → %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}

			o, _ := s.Order("ORD0001")
			wantStatus := tt.to
			if tt.wantErr {
				wantStatus = tt.from
			}
			if o.Status != wantStatus {
				t.Errorf("stored status = %s, want %s", o.Status, wantStatus)
			}
		})
	}
}

func TestCancelOrder(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s, "ORD0001", StatusPending, 45)
	seedOrder(t, s, "ORD0002", StatusDelivered, 45)

	if err := s.CancelOrder("ORD0001"); err != nil {
		t.Errorf("cancel pending order: %v", err)
	}
	if err := s.CancelOrder("ORD0002"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel delivered order error = %v, want ErrInvalidTransition", err)
	}
	if err := s.CancelOrder("ORD9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancel missing order error = %v, want ErrNotFound", err)
	}
}

func TestMarkRefundedAtMostOnce(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s, "ORD0001", StatusDelivered, 45)

	ok, err := s.MarkRefunded("ORD0001")
	if err != nil || !ok {
		t.Fatalf("first MarkRefunded = (%v, %v), want (true, nil)", ok, err)
	}

	// Second attempt must be rejected, not duplicated.
	ok, err = s.MarkRefunded("ORD0001")
	if err != nil {
		t.Fatalf("second MarkRefunded: %v", err)
	}
	if ok {
		t.Error("second MarkRefunded reported success")
	}

	o, _ := s.Order("ORD0001")
	if o.Status != StatusRefunded {
		t.Errorf("status = %s, want refunded", o.Status)
	}
}

func TestCustomerEmailBackfill(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertCustomer(Customer{CustomerID: "CUST001", Name: "John Carter", Email: "john@x.com"}); err != nil {
		t.Fatal(err)
	}
	seedOrder(t, s, "ORD0001", StatusDelivered, 45)

	email, err := s.CustomerEmailForOrder("ORD0001")
	if err != nil {
		t.Fatalf("CustomerEmailForOrder: %v", err)
	}
	if email != "john@x.com" {
		t.Errorf("email = %q", email)
	}

	// Order with no customer record on file.
	if err := s.InsertOrder(Order{OrderID: "ORD0002", CustomerID: "CUST404", Status: StatusDelivered}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CustomerEmailForOrder("ORD0002"); !errors.Is(err, ErrNotFound) {
		t.Errorf("backfill without customer error = %v, want ErrNotFound", err)
	}
}

func TestLatestPayment(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s, "ORD0001", StatusDelivered, 45)
	if err := s.InsertPayment(Payment{OrderID: "ORD0001", ProviderPaymentID: "pi_001", Amount: 45, Status: "succeeded"}); err != nil {
		t.Fatal(err)
	}

	p, err := s.LatestPayment("ORD0001")
	if err != nil {
		t.Fatalf("LatestPayment: %v", err)
	}
	if p.ProviderPaymentID != "pi_001" || p.Status != "succeeded" {
		t.Errorf("unexpected payment: %+v", p)
	}

	if _, err := s.LatestPayment("ORD0002"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing payment error = %v, want ErrNotFound", err)
	}
}

func TestConversationHistory(t *testing.T) {
	s := newTestStore(t)

	msgs := []struct{ role, content string }{
		{RoleUser, "I want a refund"},
		{RoleAssistant, "Could you provide your order number?"},
		{RoleUser, "ORD0001"},
	}
	for _, m := range msgs {
		if err := s.AddMessage("sess-1", m.role, m.content); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}
	if err := s.AddMessage("sess-2", RoleUser, "unrelated"); err != nil {
		t.Fatal(err)
	}

	history, err := s.History("sess-1", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Chronological order.
	if history[0].Content != "I want a refund" || history[2].Content != "ORD0001" {
		t.Errorf("history out of order: %+v", history)
	}

	// Limit returns the most recent messages.
	recent, err := s.History("sess-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Content != "Could you provide your order number?" {
		t.Errorf("limited history = %+v", recent)
	}

	ctx := s.ContextString("sess-1", 10)
	for _, want := range []string{"Previous conversation:", "Customer: I want a refund", "Agent: Could you provide your order number?"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}

	if got := s.ContextString("sess-none", 10); got != "No previous conversation." {
		t.Errorf("empty session context = %q", got)
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)

	for _, m := range []struct{ session, content string }{
		{"sess-1", "hello"},
		{"sess-1", "order status"},
		{"sess-2", "refund please"},
	} {
		if err := s.AddMessage(m.session, RoleUser, m.content); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	sessions, err := s.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}

	byID := map[string]SessionInfo{}
	for _, si := range sessions {
		byID[si.SessionID] = si
	}
	if byID["sess-1"].MessageCount != 2 || byID["sess-2"].MessageCount != 1 {
		t.Errorf("message counts = %+v", byID)
	}
	for id, si := range byID {
		if si.StartedAt.IsZero() || si.LastActivity.IsZero() {
			t.Errorf("%s: timestamps not parsed: %+v", id, si)
		}
		if si.LastActivity.Before(si.StartedAt) {
			t.Errorf("%s: last activity precedes start: %+v", id, si)
		}
	}
}

func TestTicketLifecycle(t *testing.T) {
	s := newTestStore(t)

	conf := 0.2
	id, err := s.CreateTicket(Ticket{
		SessionID:       "sess-1",
		IssueType:       "complex_query",
		Description:     "needs a human",
		Priority:        PriorityMedium,
		ConfidenceScore: &conf,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if len(id) != 11 || id[:3] != "TKT" {
		t.Errorf("ticket id = %q", id)
	}

	tk, err := s.Ticket(id)
	if err != nil {
		t.Fatalf("Ticket: %v", err)
	}
	if tk.Status != TicketOpen || tk.Priority != PriorityMedium {
		t.Errorf("unexpected ticket: %+v", tk)
	}
	if tk.ConfidenceScore == nil || *tk.ConfidenceScore != 0.2 {
		t.Errorf("confidence = %v", tk.ConfidenceScore)
	}

	// Priority ordering in the open listing.
	if _, err := s.CreateTicket(Ticket{SessionID: "sess-2", IssueType: "explicit_request", Priority: PriorityHigh}); err != nil {
		t.Fatal(err)
	}
	open, err := s.OpenTickets()
	if err != nil {
		t.Fatalf("OpenTickets: %v", err)
	}
	if len(open) != 2 || open[0].Priority != PriorityHigh {
		t.Errorf("open tickets = %+v", open)
	}

	if err := s.ResolveTicket(id); err != nil {
		t.Fatalf("ResolveTicket: %v", err)
	}
	tk, _ = s.Ticket(id)
	if tk.Status != TicketResolved || tk.ResolvedAt == nil {
		t.Errorf("resolved ticket = %+v", tk)
	}

	// Resolving twice fails.
	if err := s.ResolveTicket(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("double resolve error = %v, want ErrNotFound", err)
	}
}
