package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
	"github.com/dgallion1/docindex/internal/parser"
)

// Extractor turns raw document bytes into a markdown SourceDocument.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (*document.SourceDocument, error)
}

// Analyzer is the remote layout backend.
type Analyzer interface {
	Analyze(ctx context.Context, name string, data []byte) (*document.SourceDocument, error)
}

// Router sends PDFs to the layout backend when one is configured and
// everything else to the local parsers.
type Router struct {
	layout Analyzer
	opts   parser.Options
}

// NewExtractor returns a Router. layout may be nil, in which case every
// format is handled locally.
func NewExtractor(layout Analyzer, opts parser.Options) *Router {
	return &Router{layout: layout, opts: opts}
}

func (r *Router) Extract(ctx context.Context, name string, data []byte) (*document.SourceDocument, error) {
	if r.layout != nil && strings.EqualFold(filepath.Ext(name), ".pdf") {
		doc, err := r.layout.Analyze(ctx, name, data)
		if err != nil {
			return nil, fmt.Errorf("layout extract %s: %w", name, err)
		}
		return doc, nil
	}

	p, err := parser.ForFile(name, r.opts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, nil
}
