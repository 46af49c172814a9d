package actions

import (
	"log/slog"

	"github.com/calyx-systems/deskagent/internal/faq"
	"github.com/calyx-systems/deskagent/internal/notify"
	"github.com/calyx-systems/deskagent/internal/payment"
	"github.com/calyx-systems/deskagent/internal/store"
)

// Deps holds the shared handles the action executors close over.
type Deps struct {
	Store     *store.Store
	Processor payment.Processor
	FAQ       *faq.Client

	// FAQResults is how many snippets a knowledge-base search returns.
	// Zero or negative means the built-in default of 3.
	FAQResults int

	// Notifier receives events from side-effecting actions. Delivery
	// is best effort and never fails an action.
	Notifier *notify.Dispatcher

	// RefundLimits caps automated refunds per currency code, in major
	// units. A currency absent from the map has no automated limit.
	RefundLimits map[string]float64

	Logger *slog.Logger
}

// DefaultRegistry builds the full production registry.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()
	registerOrderActions(r, deps)
	registerPaymentActions(r, deps)
	registerTicketActions(r, deps)
	registerFAQActions(r, deps)
	return r
}
