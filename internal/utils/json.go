package utils

import (
	"strings"
)

// SanitizeJSON strips Markdown code fences and surrounding whitespace from
// model output so it can be decoded as JSON.
func SanitizeJSON(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}
