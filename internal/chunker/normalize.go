package chunker

import (
	"regexp"
	"strings"
)

// ws matches one whitespace character, including the Unicode separators
// that extraction backends emit for layout spacing.
const ws = `[\s\p{Z}\x{85}]`

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	inlineSpace  = regexp.MustCompile(`[ \t]+`)
	blankRun     = regexp.MustCompile(`\n` + ws + `*\n`)
)

// Normalize strips control characters, collapses runs of spaces and tabs
// within a line to a single space, and reduces every blank-line run to
// exactly one blank line. Line breaks are preserved since blank lines mark
// paragraph and section boundaries.
func Normalize(raw string) string {
	text := controlChars.ReplaceAllString(raw, "")
	text = inlineSpace.ReplaceAllString(text, " ")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
