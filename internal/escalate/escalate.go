// Package escalate decides when a conversation leaves the agent's
// hands and manages the support tickets that hand-off creates.
package escalate

import (
	"fmt"
	"strings"

	"github.com/calyx-systems/deskagent/internal/actions"
	"github.com/calyx-systems/deskagent/internal/store"
)

// explicitKeywords trigger escalation regardless of anything else the
// utterance contains.
var explicitKeywords = []string{
	"speak to human", "talk to person", "real person", "human agent",
	"not satisfied", "complaint", "legal", "lawsuit", "fraud",
	"emergency", "urgent", "critical", "manager", "supervisor",
}

// legalKeywords flag queries the agent must not attempt on its own.
var legalKeywords = []string{
	"legal", "lawsuit", "attorney", "contract", "terms violation",
}

// ShouldEscalate reports whether the utterance (optionally with the
// action results gathered so far) needs a human, and why. Triggers are
// checked in order: explicit request, repeated action failure, legal
// or contractual subject matter.
func ShouldEscalate(utterance string, results []actions.Result) (bool, string) {
	lower := strings.ToLower(utterance)

	for _, kw := range explicitKeywords {
		if strings.Contains(lower, kw) {
			return true, fmt.Sprintf("customer explicitly requested: %s", kw)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err {
			failed++
		}
	}
	if failed >= 2 {
		return true, "multiple action failures detected"
	}

	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			return true, "complex legal or contractual query detected"
		}
	}

	return false, ""
}

// Manager creates and tracks escalation tickets.
type Manager struct {
	store *store.Store
}

// NewManager wraps the store for ticket operations.
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// CreateTicket opens a ticket. confidence may be nil when the agent
// has no score for the hand-off.
func (m *Manager) CreateTicket(sessionID, customerID, issueType, description, priority string, confidence *float64) (string, error) {
	return m.store.CreateTicket(store.Ticket{
		SessionID:       sessionID,
		CustomerID:      customerID,
		IssueType:       issueType,
		Description:     description,
		Priority:        priority,
		ConfidenceScore: confidence,
	})
}

// Ticket looks up a ticket by id.
func (m *Manager) Ticket(ticketID string) (*store.Ticket, error) {
	return m.store.Ticket(ticketID)
}

// OpenTickets lists open tickets, highest priority first.
func (m *Manager) OpenTickets() ([]store.Ticket, error) {
	return m.store.OpenTickets()
}

// Resolve marks a ticket resolved.
func (m *Manager) Resolve(ticketID string) error {
	return m.store.ResolveTicket(ticketID)
}

// RequestMessage is the reply for an explicit hand-off request.
func RequestMessage(ticketID string) string {
	return fmt.Sprintf(`I understand you'd like to speak with a human agent. I've created a support ticket for you.

**Ticket ID:** %s
**Priority:** High
**Status:** Open

A human support agent will contact you shortly. Expected response time: Within 1 hour.

Is there anything I can help you with in the meantime?`, ticketID)
}

// ExhaustionMessage is the reply when the agent gives up after
// repeated failures.
func ExhaustionMessage(ticketID string) string {
	return fmt.Sprintf(`I apologize, but I'm having difficulty resolving your issue automatically. I've created a support ticket for human assistance.

**Ticket ID:** %s
**Status:** Open

A support agent will review your case and contact you within 24 hours.`, ticketID)
}
