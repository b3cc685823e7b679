package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
)

// TextParser handles plain text files. Paragraphs are kept as-is and
// re-joined with single blank lines.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.SourceDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var md markdownWriter
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			md.block(current.String())
			current.Reset()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	md.block(current.String())

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return newDocument(filename, "txt", "", md.String(), 0), nil
}
