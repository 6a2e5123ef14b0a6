package moderation

import (
	"regexp"
	"strings"
)

// Markup stripping happens before any other content check: the cleaned
// text is what gets validated and persisted, never the raw submission.
var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	markupTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	jsURIRe        = regexp.MustCompile(`(?i)javascript\s*:`)
	whitespaceRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// Sanitize strips script blocks, inline event-handler attributes, all
// markup tags and javascript: URIs from free-text input, then collapses
// leftover whitespace.
func Sanitize(input string) string {
	cleaned := scriptBlockRe.ReplaceAllString(input, "")
	cleaned = eventHandlerRe.ReplaceAllString(cleaned, "")
	cleaned = markupTagRe.ReplaceAllString(cleaned, "")
	cleaned = jsURIRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
