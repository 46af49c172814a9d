// Package notify fans structured events out to the configured
// notification sinks. Delivery is best effort; a sink failure is
// logged and never propagated to the caller, so a notification outage
// cannot fail the business operation that triggered it.
package notify

import (
	"context"
	"log/slog"
)

// Event types emitted by the agent and its actions.
const (
	EventRefundProcessed      = "refund_processed"
	EventHighValueRefund      = "high_value_refund"
	EventTicketCreated        = "ticket_created"
	EventReplacementRequested = "replacement_requested"
)

// Event is one notification. Amount is in minor units (cents, paise).
// Email is the customer address when one is known; sinks that need a
// recipient skip events without one.
type Event struct {
	Type     string `json:"type"`
	Session  string `json:"session,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	Email    string `json:"-"`
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Sink delivers events to one channel.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Notify delivers the event. Returning an error marks the
	// delivery failed for this sink only.
	Notify(ctx context.Context, ev Event) error
}

// Dispatcher emits events to all registered sinks in order.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given sinks.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Emit delivers the event to every sink sequentially. Errors are
// logged and swallowed.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	for _, s := range d.sinks {
		if err := s.Notify(ctx, ev); err != nil {
			d.logger.Warn("notification delivery failed",
				"sink", s.Name(),
				"event", ev.Type,
				"error", err)
			continue
		}
		d.logger.Debug("notification delivered",
			"sink", s.Name(),
			"event", ev.Type)
	}
}
