package mealplan

import (
	"regexp"
	"strings"
)

var (
	// ```json { ... } ```
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	objectPattern       = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingComma       = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSON pulls the JSON object out of a model reply. Models sometimes wrap
// the object in a code fence or leave trailing commas even in JSON mode.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	var raw string
	if m := fencedObjectPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = objectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return trailingComma.ReplaceAllString(raw, "$1")
}
