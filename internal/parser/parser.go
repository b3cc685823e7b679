package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
)

// Parser converts raw document bytes into a markdown SourceDocument.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.SourceDocument, error)
}

// Options tunes the parsers returned by ForFile.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// stem strips directories and the extension from filename.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newDocument(filename, format, title, content string, pages int) *document.SourceDocument {
	if title == "" {
		title = stem(filename)
	}
	return &document.SourceDocument{
		Content: content,
		Metadata: document.Metadata{
			Source:           filename,
			ExtractionMethod: document.MethodLocal + "_" + format,
			Pages:            pages,
			ContentFormat:    document.ContentFormatMarkdown,
			Extra:            map[string]any{"title": title},
		},
	}
}

// markdownWriter accumulates blank-line separated markdown blocks.
type markdownWriter struct {
	buf strings.Builder
}

func (w *markdownWriter) block(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if w.buf.Len() > 0 {
		w.buf.WriteString("\n\n")
	}
	w.buf.WriteString(s)
}

func (w *markdownWriter) heading(level int, text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}
	level = min(max(level, 1), 6)
	w.block(strings.Repeat("#", level) + " " + text)
}

func (w *markdownWriter) String() string {
	return w.buf.String()
}
