// Package actions holds the agent's capability registry. Every
// side-effecting operation the reasoning loop can request goes through
// an Action registered here; the registry is the only boundary between
// model output and real systems, so it fails closed: unknown names,
// handler errors, and handler panics all come back as error-flagged
// Results rather than propagating.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrActionNotFound is returned when an invoked action name is not
// registered.
var ErrActionNotFound = errors.New("action not found")

// Result is the outcome of one action invocation. Text is customer
// facing. Err marks the invocation failed; the escalation check counts
// error-flagged results.
type Result struct {
	Text string
	Err  bool
}

// Action is one registered capability.
type Action struct {
	// Name is the identifier the model uses to invoke the action.
	Name string

	// Description is one line for the prompt catalog.
	Description string

	// Params names the positional parameters in pipe order.
	Params []string

	// Defaults supplies values for trailing parameters the caller
	// omitted.
	Defaults map[string]string

	// Handler runs the action. A non-nil error flags the Result; the
	// returned text is still used when present so handlers can fail
	// with a customer-facing message.
	Handler func(ctx context.Context, args map[string]string) (string, error)
}

// Registry maps action names to handlers. Registration happens once at
// startup; invocation is read-only thereafter.
type Registry struct {
	byName map[string]*Action
	order  []*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Action)}
}

// Register adds an action. Re-registering a name replaces the earlier
// entry.
func (r *Registry) Register(a Action) {
	if _, exists := r.byName[a.Name]; !exists {
		r.order = append(r.order, &a)
	} else {
		for i, existing := range r.order {
			if existing.Name == a.Name {
				r.order[i] = &a
				break
			}
		}
	}
	r.byName[a.Name] = &a
}

// Get returns the named action.
func (r *Registry) Get(name string) (*Action, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}
	return a, nil
}

// List returns all actions in registration order.
func (r *Registry) List() []*Action {
	return r.order
}

// Catalog renders the action list for prompt injection.
func (r *Registry) Catalog() string {
	var b strings.Builder
	for _, a := range r.order {
		fmt.Fprintf(&b, "- %s(%s): %s\n", a.Name, strings.Join(a.Params, "|"), a.Description)
	}
	return b.String()
}

// Invoke runs the named action against a raw input string. The input
// is adapted to the action's parameters (see parseInput); unknown
// names, handler errors, and handler panics all return error-flagged
// Results.
func (r *Registry) Invoke(ctx context.Context, name, input string) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = Result{
				Text: fmt.Sprintf("Something went wrong while handling that request (%s). Please try again or contact our support team.", name),
				Err:  true,
			}
		}
	}()

	a, err := r.Get(name)
	if err != nil {
		return Result{
			Text: fmt.Sprintf("I don't have a capability called %q, so I couldn't complete that step.", name),
			Err:  true,
		}
	}

	args := parseInput(a, input)

	text, err := a.Handler(ctx, args)
	if err != nil {
		if text == "" {
			text = fmt.Sprintf("The %s request failed: %v. Please contact our support team.", name, err)
		}
		return Result{Text: text, Err: true}
	}
	return Result{Text: text}
}

// parseInput adapts the raw input string to the action's named
// parameters. A JSON object maps keys directly. Otherwise the input is
// split on "|" positionally across Params; missing trailing fields
// take Defaults. Single-parameter actions receive the raw string
// unsplit, so pipes in free text survive. A pipe inside a field value
// of a multi-parameter call is misparsed; the delimiter carries no
// escaping.
func parseInput(a *Action, input string) map[string]string {
	input = strings.TrimSpace(input)
	args := make(map[string]string, len(a.Params))

	if strings.HasPrefix(input, "{") {
		var kv map[string]any
		if err := json.Unmarshal([]byte(input), &kv); err == nil {
			for k, v := range kv {
				args[k] = fmt.Sprintf("%v", v)
			}
			applyDefaults(a, args)
			return args
		}
	}

	if len(a.Params) == 1 {
		args[a.Params[0]] = input
		applyDefaults(a, args)
		return args
	}

	parts := strings.Split(input, "|")
	for i, p := range a.Params {
		if i < len(parts) {
			args[p] = strings.TrimSpace(parts[i])
		}
	}
	applyDefaults(a, args)
	return args
}

func applyDefaults(a *Action, args map[string]string) {
	for k, v := range a.Defaults {
		if args[k] == "" {
			args[k] = v
		}
	}
}
