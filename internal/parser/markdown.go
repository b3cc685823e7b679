package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Content passes
// through unchanged except that setext headings ("Title\n=====") are
// rewritten as ATX headings, which is the only form the chunker splits on.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.SourceDocument, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	lines := strings.Split(string(src), "\n")
	var title string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		headingText := strings.TrimSpace(string(h.Text(src)))
		if title == "" && h.Level == 1 {
			title = headingText
		}

		first := bytes.Count(src[:h.Lines().At(0).Start], []byte("\n"))
		if strings.HasPrefix(strings.TrimSpace(lines[first]), "#") {
			continue
		}
		// Setext: text lines followed by an underline line.
		last := bytes.Count(src[:h.Lines().At(h.Lines().Len()-1).Start], []byte("\n"))
		underline := last + 1
		if underline >= len(lines) {
			continue
		}
		lines[first] = strings.Repeat("#", h.Level) + " " + collapse(headingText)
		for i := first + 1; i <= underline; i++ {
			lines[i] = setextRemoved
		}
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != setextRemoved {
			out = append(out, l)
		}
	}
	return newDocument(filename, "markdown", title, strings.Join(out, "\n"), 0), nil
}

// setextRemoved marks lines folded into a rewritten heading. It cannot occur
// in split input since it contains a newline.
const setextRemoved = "\n"
