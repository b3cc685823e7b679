package chunker

import (
	"strings"
	"testing"
)

func sectionTexts(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Text
	}
	return out
}

func TestSegment_HeadingBoundaries(t *testing.T) {
	got := sectionTexts(Segment("# A\nbody1\n## B\nbody2"))
	want := []string{"# A\nbody1", "## B\nbody2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSegment_NoHeadingsIsOneSection(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph."
	sections := Segment(text)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Text != text {
		t.Errorf("expected whole text as preamble, got %q", sections[0].Text)
	}
	if sections[0].Index != 0 {
		t.Errorf("expected index 0, got %d", sections[0].Index)
	}
}

func TestSegment_Preamble(t *testing.T) {
	got := sectionTexts(Segment("Intro.\n\n# One\nx\n\n#### Four\ny"))
	want := []string{"Intro.", "# One\nx", "#### Four\ny"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sections, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSegment_HeadingLevels(t *testing.T) {
	cases := map[string]bool{
		"# one":          true,
		"## two":         true,
		"### three":      true,
		"#### four":      true,
		"##### five":     false,
		"#nospace":       false,
		"#":              false,
		"   ## indented": true,
		"text # not":     false,
	}
	for line, want := range cases {
		if got := IsHeading(line); got != want {
			t.Errorf("IsHeading(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestSegment_DropsEmptySections(t *testing.T) {
	sections := Segment("  \n\n# A\n# B\nbody")
	got := sectionTexts(sections)
	if len(got) != 2 || got[0] != "# A" || got[1] != "# B\nbody" {
		t.Fatalf("unexpected sections %q", got)
	}
	for i, s := range sections {
		if s.Index != i {
			t.Errorf("section %d: expected index %d, got %d", i, i, s.Index)
		}
	}
}

func TestSegment_HeadingInsideTableStillSplits(t *testing.T) {
	got := Segment("| a | b |\n# inside\n| c | d |")
	if len(got) != 2 {
		t.Fatalf("expected heading inside table to split, got %q", sectionTexts(got))
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment(""); len(got) != 0 {
		t.Errorf("expected no sections for empty text, got %q", sectionTexts(got))
	}
}
