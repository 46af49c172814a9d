package agent

import (
	"regexp"
	"strings"
)

// minSanitizedLength is the floor below which sanitizing backs off and
// returns the input unchanged, so a reply is never stripped to
// nothing.
const minSanitizedLength = 20

// internalPhrases are patterns the model sometimes leaks despite the
// prompt: tool-use narration, literal action JSON, action names.
var internalPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)I'll use the \w+ tool`),
	regexp.MustCompile(`(?i)using the \w+ tool`),
	regexp.MustCompile(`(?i)I will use the \w+ tool`),
	regexp.MustCompile(`(?i)Let me use the \w+ tool`),
	regexp.MustCompile(`(?i)I'll search the \w+ database`),
	regexp.MustCompile(`(?i)I'll query the \w+`),
	regexp.MustCompile(`(?i)Here's my next step:`),
	regexp.MustCompile(`(?i)Here's my request:`),
	regexp.MustCompile(`(?i)Here is my action:`),
	regexp.MustCompile(`(?i)Here's the JSON object:`),
	regexp.MustCompile(`\{"action":[^}]+\}`),
	regexp.MustCompile(`(?i)semantic_search_faq`),
	regexp.MustCompile(`(?i)fetch_order`),
	regexp.MustCompile(`(?i)fetch_customer`),
	regexp.MustCompile(`(?i)tool to retrieve`),
	regexp.MustCompile(`(?i)database operations`),
	regexp.MustCompile(`(?i)Please let me know if this is acceptable`),
	regexp.MustCompile(`(?i)if you'd like me to proceed`),
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Sanitize strips internal phrasing from a customer-facing reply and
// collapses the blank lines left behind. Idempotent on clean text.
func Sanitize(response string) string {
	cleaned := response
	for _, re := range internalPhrases {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) < minSanitizedLength {
		return response
	}
	return cleaned
}
