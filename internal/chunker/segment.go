package chunker

import (
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`^#{1,4}` + ws + `+.+$`)

// Section is one heading and its body, or the headerless preamble.
type Section struct {
	Text  string
	Index int // Position in the segmenter output
}

// IsHeading reports whether line is a level 1-4 markdown heading.
func IsHeading(line string) bool {
	return headingPattern.MatchString(strings.TrimSpace(line))
}

// Segment splits normalized text into sections at heading lines. Each
// section starts with its heading, except a leading preamble. Sections that
// are empty after trimming are dropped. Headings are matched line by line
// with no awareness of code fences or tables.
func Segment(text string) []Section {
	var sections []Section
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		t := strings.TrimSpace(strings.Join(current, "\n"))
		if t != "" {
			sections = append(sections, Section{Text: t, Index: len(sections)})
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if IsHeading(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}
