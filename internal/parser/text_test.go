package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docindex/internal/document"
)

func TestTextParser_BasicParagraphs(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != input {
		t.Errorf("expected %q, got %q", input, doc.Content)
	}
	if doc.Metadata.Extra["title"] != "notes" {
		t.Errorf("expected title %q, got %v", "notes", doc.Metadata.Extra["title"])
	}
	if doc.Metadata.ContentFormat != document.ContentFormatMarkdown {
		t.Errorf("unexpected content format %q", doc.Metadata.ContentFormat)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "" {
		t.Errorf("expected empty content, got %q", doc.Content)
	}
}

func TestTextParser_BlankRunsCollapse(t *testing.T) {
	// Whitespace-only lines count as blank; runs become one separator.
	input := "Para one.\n\n   \n\n\t\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "Para one.\n\nPara two." {
		t.Errorf("unexpected content %q", doc.Content)
	}
}
