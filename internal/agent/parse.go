package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind tags what a model completion turned out to be.
type Kind int

const (
	// KindPlain is prose with no marker and no action call. Treated
	// as a final answer (fail open).
	KindPlain Kind = iota

	// KindFinal is an explicit final answer after the marker.
	KindFinal

	// KindAction is a request to invoke a registered action.
	KindAction
)

// Outcome is one classified completion. Text is set for Plain and
// Final; Name and Input for Action.
type Outcome struct {
	Kind  Kind
	Text  string
	Name  string
	Input string
}

const finalMarker = "FINAL ANSWER:"

// actionPattern finds a flat JSON object carrying an "action" key in
// surrounding prose. Nested objects in action_input are not matched;
// the model is prompted to keep inputs flat.
var actionPattern = regexp.MustCompile(`\{[^}]*"action"[^}]*\}`)

// Classify decides what a completion is. The final-answer marker wins
// over an embedded action object; matching is case-insensitive and
// takes the last marker occurrence.
func Classify(response string) Outcome {
	upper := strings.ToUpper(response)
	if idx := strings.LastIndex(upper, finalMarker); idx >= 0 {
		tail := strings.TrimSpace(response[idx+len(finalMarker):])
		return Outcome{Kind: KindFinal, Text: tail}
	}

	if m := actionPattern.FindString(response); m != "" {
		var call struct {
			Action      string `json:"action"`
			ActionInput any    `json:"action_input"`
		}
		if err := json.Unmarshal([]byte(m), &call); err == nil && call.Action != "" {
			return Outcome{Kind: KindAction, Name: call.Action, Input: stringifyInput(call.ActionInput)}
		}
	}

	return Outcome{Kind: KindPlain, Text: strings.TrimSpace(response)}
}

func stringifyInput(v any) string {
	switch in := v.(type) {
	case nil:
		return ""
	case string:
		return in
	default:
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Sprintf("%v", in)
		}
		return string(b)
	}
}
