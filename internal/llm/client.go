// Package llm wraps the reasoning engine behind a narrow text-in,
// text-out contract. The engine is a black box: one opaque prompt goes
// in, one opaque completion comes out. All structure (final-answer
// markers, action JSON) is a convention the agent layer imposes and
// parses defensively.
package llm

import "context"

// Client is the reasoning-engine contract.
type Client interface {
	// Complete sends one prompt and returns one completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// Ping checks if the engine is reachable.
	Ping(ctx context.Context) error
}
