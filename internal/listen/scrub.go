package listen

import (
	"regexp"
	"strings"
)

// annotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)".
var annotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s_]*[\)\]]`)

// Known artifact tokens whisper emits for non-speech audio.
var artifacts = []string{
	"[BLANK_AUDIO]",
	"[BLANK AUDIO]",
	"(silence)",
	"[silence]",
	"(no speech)",
	"[no speech]",
	"[Music]",
	"(music)",
	"(static)",
	"(background noise)",
	"(inaudible)",
	"(unintelligible)",
}

// Full-transcript hallucinations whisper produces on silence. If the
// scrubbed text is exactly one of these, the chunk is discarded.
var hallucinations = []string{
	"...",
	"you",
	"thank you.",
	"thanks for watching!",
	"thank you for watching.",
	"bye.",
	"bye!",
	"the end.",
}

// Scrub normalizes a raw whisper transcription: newlines collapse to
// spaces, artifact tokens and bracketed annotations are removed, and
// silence hallucinations reduce to "". The surviving text is trimmed.
func Scrub(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)

	for _, a := range artifacts {
		s = strings.ReplaceAll(s, a, "")
		s = strings.ReplaceAll(s, strings.ToLower(a), "")
		s = strings.ReplaceAll(s, strings.ToUpper(a), "")
	}
	s = annotation.ReplaceAllString(s, "")

	s = strings.Join(strings.Fields(s), " ")

	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if lower == h {
			return ""
		}
	}

	// Strip timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]".
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			s = strings.TrimSpace(s[idx+1:])
		}
	}

	return s
}
