package chunker

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
)

// Config controls chunking behavior.
type Config struct {
	MinSectionChars int          // Sections shorter than this merge into their successor.
	Logger          *slog.Logger // Optional; nil discards chunking logs.
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{MinSectionChars: DefaultMinSectionChars}
}

// Chunker turns extracted markdown into header-section chunks. It holds no
// per-document state and is safe for concurrent use.
type Chunker struct {
	minChars int
	log      *slog.Logger
}

func New(cfg Config) *Chunker {
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = DefaultMinSectionChars
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Chunker{minChars: cfg.MinSectionChars, log: log}
}

// ChunkDocument runs normalize, segment, merge, table compaction and
// assembly over one document. A document with no content yields no chunks.
func (c *Chunker) ChunkDocument(doc document.SourceDocument) []document.ChunkRecord {
	log := c.log.With("source", doc.Metadata.Source)

	text := Normalize(doc.Content)
	sections := Segment(text)
	merged := Merge(sections, c.minChars)
	for i := range merged {
		merged[i].Text = CompactTables(strings.TrimSpace(merged[i].Text))
	}

	chunks := Assemble(merged, doc.Metadata, charLen(doc.Content))
	log.Debug("sections merged", "before", len(sections), "after", len(merged), "min_chars", c.minChars)
	log.Info("chunked document", "normalized_chars", charLen(text), "chunks", len(chunks))
	return chunks
}

// ChunkAll chunks each document in order and concatenates the results.
func (c *Chunker) ChunkAll(docs []document.SourceDocument) []document.ChunkRecord {
	var all []document.ChunkRecord
	for _, doc := range docs {
		all = append(all, c.ChunkDocument(doc)...)
	}
	return all
}

// Assemble wraps finished sections as chunk records. Sections that are empty
// after trimming are dropped and do not consume a chunk index.
func Assemble(sections []Section, meta document.Metadata, originalLength int) []document.ChunkRecord {
	chunks := make([]document.ChunkRecord, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		chunks = append(chunks, document.ChunkRecord{
			Content:        s.Text,
			ChunkIndex:     len(chunks),
			SectionIndex:   s.Index,
			ChunkType:      document.ChunkTypeHeaderSection,
			OriginalLength: originalLength,
			TableBlocks:    countTables(s.Text),
			Metadata:       meta.Clone(),
		})
	}
	return chunks
}
