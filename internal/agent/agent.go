// Package agent runs the conversational control loop: persist the
// utterance, check for escalation, try the fast path, then drive a
// bounded reason-act loop against the model with the action registry
// as the only side-effect boundary.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calyx-systems/deskagent/internal/actions"
	"github.com/calyx-systems/deskagent/internal/escalate"
	"github.com/calyx-systems/deskagent/internal/llm"
	"github.com/calyx-systems/deskagent/internal/notify"
	"github.com/calyx-systems/deskagent/internal/store"
)

// apology is the only reply an internal failure may produce.
const apology = "I apologize, but I encountered an error while processing your request. Please try again or rephrase your question."

// Config bounds the control loop.
type Config struct {
	// MaxIterations caps reasoning-loop turns per request.
	MaxIterations int

	// ContextExchanges is how many prior exchanges frame the prompt.
	ContextExchanges int

	// RecallMessages is how many stored messages the fast-path
	// parameter scan may read back.
	RecallMessages int

	// FastPath enables keyword routing before the reasoning loop.
	FastPath bool
}

// Agent handles customer requests. All state for one request lives in
// a turn value; the Agent itself is safe for concurrent use.
type Agent struct {
	llm         llm.Client
	store       *store.Store
	registry    *actions.Registry
	escalations *escalate.Manager
	notifier    *notify.Dispatcher
	logger      *slog.Logger
	cfg         Config
}

// turn is the per-request working state.
type turn struct {
	sessionID string
	utterance string
	lower     string
	context   string
	recent    []store.Message
	history   []string
	results   []actions.Result
}

// New builds an agent from its injected handles.
func New(client llm.Client, db *store.Store, registry *actions.Registry, escalations *escalate.Manager, notifier *notify.Dispatcher, logger *slog.Logger, cfg Config) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 5
	}
	if cfg.ContextExchanges <= 0 {
		cfg.ContextExchanges = 3
	}
	if cfg.RecallMessages <= 0 {
		cfg.RecallMessages = 5
	}
	return &Agent{
		llm:         client,
		store:       db,
		registry:    registry,
		escalations: escalations,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

// Process handles one customer utterance and returns the reply. Every
// terminal path persists the assistant message; internal failures
// surface as a generic apology, never as an error page or a partial
// reply.
func (a *Agent) Process(ctx context.Context, sessionID, utterance string) (reply string, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("recovered from panic during request", "session", sessionID, "panic", p)
			reply = a.finish(sessionID, apology, "panic", start)
			err = nil
		}
	}()

	if addErr := a.store.AddMessage(sessionID, store.RoleUser, utterance); addErr != nil {
		a.logger.Warn("persist user message", "session", sessionID, "error", addErr)
	}
	a.logger.Info("customer query", "session", sessionID, "query", utterance)

	if needed, reason := escalate.ShouldEscalate(utterance, nil); needed {
		return a.escalateExplicit(ctx, sessionID, utterance, reason, start), nil
	}

	t := &turn{
		sessionID: sessionID,
		utterance: utterance,
		lower:     strings.ToLower(utterance),
		context:   a.store.ContextString(sessionID, a.cfg.ContextExchanges),
	}
	if recent, histErr := a.store.History(sessionID, a.cfg.RecallMessages); histErr == nil {
		t.recent = recent
	}

	if a.cfg.FastPath {
		if text, done := a.fastPath(ctx, t); done {
			return a.finish(sessionID, text, "fast_path", start), nil
		}
	}

	t.history = append(t.history, fmt.Sprintf("Customer Question: %s\n", utterance))
	system := buildSystemPrompt(t.context, a.registry.Catalog())

	for i := 0; i < a.cfg.MaxIterations; i++ {
		a.logger.Debug("reasoning iteration", "session", sessionID, "iteration", i+1, "max", a.cfg.MaxIterations)

		response, llmErr := a.llm.Complete(ctx, buildPrompt(system, t.history))
		if llmErr != nil {
			a.logger.Error("completion failed", "session", sessionID, "error", llmErr)
			return a.finish(sessionID, apology, "llm_error", start), nil
		}

		outcome := Classify(response)
		switch outcome.Kind {
		case KindFinal:
			// A bare or JSON-looking tail after the marker means the
			// model stopped short; give it another turn.
			if outcome.Text == "" || strings.HasPrefix(outcome.Text, "{") {
				continue
			}
			return a.finish(sessionID, Sanitize(outcome.Text), "final", start), nil

		case KindAction:
			res := a.registry.Invoke(ctx, outcome.Name, outcome.Input)
			t.results = append(t.results, res)
			t.history = append(t.history, fmt.Sprintf("Action Used: %s\nAction Input: %s\nAction Result: %s\n",
				outcome.Name, outcome.Input, res.Text))

		case KindPlain:
			return a.finish(sessionID, Sanitize(outcome.Text), "plain", start), nil
		}
	}

	if needed, reason := escalate.ShouldEscalate(utterance, t.results); needed {
		return a.escalateExhausted(ctx, sessionID, utterance, reason, t, start), nil
	}

	a.logger.Warn("iteration cap reached, synthesizing final answer", "session", sessionID)
	response, llmErr := a.llm.Complete(ctx, buildSynthesisPrompt(system, t.history, utterance))
	if llmErr != nil {
		a.logger.Error("synthesis failed", "session", sessionID, "error", llmErr)
		return a.finish(sessionID, apology, "llm_error", start), nil
	}
	return a.finish(sessionID, Sanitize(response), "synthesis", start), nil
}

// escalateExplicit hands off immediately on an explicit request.
func (a *Agent) escalateExplicit(ctx context.Context, sessionID, utterance, reason string, start time.Time) string {
	ticketID, err := a.escalations.CreateTicket(sessionID, "", "explicit_request",
		fmt.Sprintf("User query: %s\nReason: %s", utterance, reason), store.PriorityHigh, nil)
	if err != nil {
		a.logger.Error("create escalation ticket", "session", sessionID, "error", err)
		return a.finish(sessionID, apology, "error", start)
	}

	a.logger.Info("escalated to human", "session", sessionID, "ticket_id", ticketID, "reason", reason)
	a.notifier.Emit(ctx, notify.Event{
		Type:     notify.EventTicketCreated,
		Session:  sessionID,
		TicketID: ticketID,
		Subject:  fmt.Sprintf("Conversation escalated - %s", ticketID),
		Body:     fmt.Sprintf("Session %s escalated to a human agent.\n\nReason: %s\nQuery: %s", sessionID, reason, utterance),
	})

	return a.finish(sessionID, escalate.RequestMessage(ticketID), "escalated", start)
}

// escalateExhausted hands off after the loop ran out with a failing
// transcript.
func (a *Agent) escalateExhausted(ctx context.Context, sessionID, utterance, reason string, t *turn, start time.Time) string {
	var sample []string
	for i, r := range t.results {
		if i >= 3 {
			break
		}
		sample = append(sample, r.Text)
	}

	confidence := 0.2
	ticketID, err := a.escalations.CreateTicket(sessionID, "", "complex_query",
		fmt.Sprintf("User query: %s\nReason: %s\nAction results: %s", utterance, reason, strings.Join(sample, " | ")),
		store.PriorityMedium, &confidence)
	if err != nil {
		a.logger.Error("create escalation ticket", "session", sessionID, "error", err)
		return a.finish(sessionID, apology, "error", start)
	}

	a.logger.Info("escalated after exhausting iterations", "session", sessionID, "ticket_id", ticketID, "reason", reason)
	a.notifier.Emit(ctx, notify.Event{
		Type:     notify.EventTicketCreated,
		Session:  sessionID,
		TicketID: ticketID,
		Subject:  fmt.Sprintf("Conversation escalated - %s", ticketID),
		Body:     fmt.Sprintf("Session %s could not be resolved automatically.\n\nReason: %s\nQuery: %s", sessionID, reason, utterance),
	})

	return a.finish(sessionID, escalate.ExhaustionMessage(ticketID), "escalated_exhausted", start)
}

// finish persists the assistant reply and writes the audit record.
func (a *Agent) finish(sessionID, reply, state string, start time.Time) string {
	if err := a.store.AddMessage(sessionID, store.RoleAssistant, reply); err != nil {
		a.logger.Warn("persist assistant message", "session", sessionID, "error", err)
	}
	a.logger.Info("request handled",
		"session", sessionID,
		"state", state,
		"latency_ms", time.Since(start).Milliseconds())
	return reply
}
