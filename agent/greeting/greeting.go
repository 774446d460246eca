package greeting

import (
	"regexp"
	"strings"
)

var greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|howdy|yo|good\s*(morning|afternoon|evening))\b.*`)

// Reply is the deterministic response for greetings; it is served without
// touching the model, memory, or tools.
const Reply = "Hello! Who do I have the pleasure of speaking with today? " +
	"How can I assist you today?"

// Match reports whether the trimmed message is a greeting. Blank messages
// never match.
func Match(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return greetingPattern.MatchString(trimmed)
}
