// Package guard screens chat input and output. Input screening blocks obvious
// prompt injection and destructive phrases before any model call; output
// screening redacts PII that slips into a generated reply.
package guard

import (
	"regexp"
	"strings"
)

// RefusalMessage is returned verbatim when input is blocked.
const RefusalMessage = "I can't help with that request. Please ask about facility tasks, schedules, or assignments."

var blockedKeywords = []string{
	"ignore all instructions",
	"ignore previous instructions",
	"system prompt",
	"delete database",
	"drop table",
}

var piiPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// ValidateInput checks a user message for injection or abuse patterns.
// It returns false plus the matched keyword when the message is blocked.
func ValidateInput(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, keyword := range blockedKeywords {
		if strings.Contains(lower, keyword) {
			return false, keyword
		}
	}
	return true, ""
}

// SanitizeOutput redacts PII from a reply before it reaches the user.
func SanitizeOutput(text string) string {
	sanitized := text
	for name, pattern := range piiPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, "["+strings.ToUpper(name)+"_REDACTED]")
	}
	return sanitized
}
