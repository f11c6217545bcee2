package speech

import (
	"regexp"
	"strings"
)

// The model is instructed to answer in plain text, but replies still
// arrive with light markdown now and then. Everything structural is
// stripped before synthesis; only the textual content is spoken.
var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emphRe    = regexp.MustCompile(`(^|\s)[*_]([^*_]+)[*_]`)
	codeRe    = regexp.MustCompile("`([^`]*)`")
	linkRe    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe = regexp.MustCompile(`^#{1,6}\s+`)
	bulletRe  = regexp.MustCompile(`^[\-\*\+]\s+`)
	numberRe  = regexp.MustCompile(`^\d+[.)]\s+`)
	quoteRe   = regexp.MustCompile(`^>\s?`)
)

// Plaintext converts lightly marked-up text to plain spoken text:
// fences, emphasis, links, and heading/list/quote markers are removed,
// their textual content preserved.
func Plaintext(text string) string {
	var out []string
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			// Code bodies are kept — they may be the whole answer.
			if trimmed != "" {
				out = append(out, trimmed)
			}
			continue
		}

		trimmed = headingRe.ReplaceAllString(trimmed, "")
		trimmed = bulletRe.ReplaceAllString(trimmed, "")
		trimmed = numberRe.ReplaceAllString(trimmed, "")
		trimmed = quoteRe.ReplaceAllString(trimmed, "")

		trimmed = boldRe.ReplaceAllString(trimmed, "$1")
		trimmed = emphRe.ReplaceAllString(trimmed, "$1$2")
		trimmed = codeRe.ReplaceAllString(trimmed, "$1")
		trimmed = linkRe.ReplaceAllString(trimmed, "$1")

		if trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return strings.Join(out, " ")
}
