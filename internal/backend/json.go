package backend

import "strings"

// ExtractJSON strips markdown code fences that chat models commonly wrap
// around JSON payloads, returning the bare JSON text. Used by the safety
// classifier and the judge, which both request JSON-formatted verdicts.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
