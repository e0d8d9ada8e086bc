package ingest

import (
	"regexp"
	"strings"
)

var newlineRun = regexp.MustCompile(`\s*\n\s*`)

// NormalizeNewlines collapses whitespace runs surrounding line breaks into a
// single space and trims the ends. Applied to paginated extractions (PDF) whose
// hard line wraps carry no meaning; structured formats like Markdown keep their
// newlines.
func NormalizeNewlines(text string) string {
	return strings.TrimSpace(newlineRun.ReplaceAllString(text, " "))
}
