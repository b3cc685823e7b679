package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinSectionChars is the size below which a section is merged into
// its successor.
const DefaultMinSectionChars = 100

// Merge folds every section shorter than minChars characters into the
// section that follows it, joined by a blank line. The pass is greedy and
// single: a merged pair is never re-checked, the consumed successor is never
// examined on its own, and a short final section is kept as is.
func Merge(sections []Section, minChars int) []Section {
	if len(sections) == 0 {
		return sections
	}

	merged := make([]Section, 0, len(sections))
	for i := 0; i < len(sections); {
		cur := sections[i]
		if charLen(strings.TrimSpace(cur.Text)) < minChars && i+1 < len(sections) {
			merged = append(merged, Section{
				Text:  cur.Text + "\n\n" + sections[i+1].Text,
				Index: cur.Index,
			})
			i += 2
			continue
		}
		merged = append(merged, cur)
		i++
	}
	return merged
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
