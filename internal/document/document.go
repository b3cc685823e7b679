package document

import (
	"encoding/json"
	"maps"
)

// ChunkTypeHeaderSection tags chunks derived from a header-delimited section.
const ChunkTypeHeaderSection = "header_section"

// Extraction methods recorded in Metadata.ExtractionMethod.
const (
	MethodLayout = "document_intelligence_layout"
	MethodLocal  = "local"
)

// ContentFormatMarkdown is the only content format the chunker consumes.
const ContentFormatMarkdown = "markdown"

// Metadata is the provenance carried from extraction through to the index.
type Metadata struct {
	Source           string         // Origin identifier (blob name or upload filename)
	ExtractionMethod string         // How the markdown was produced
	Pages            int            // Page count reported by the extractor (0 if unknown)
	ContentFormat    string         // Format of SourceDocument.Content
	Extra            map[string]any // Provenance fields passed through uninterpreted
}

// Clone returns a copy whose Extra map is not shared with m.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Extra != nil {
		out.Extra = maps.Clone(m.Extra)
	}
	return out
}

// Fields flattens the metadata into a single key/value mapping.
func (m Metadata) Fields() map[string]any {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["source"] = m.Source
	if m.ExtractionMethod != "" {
		out["extraction_method"] = m.ExtractionMethod
	}
	if m.Pages > 0 {
		out["pages"] = m.Pages
	}
	if m.ContentFormat != "" {
		out["content_format"] = m.ContentFormat
	}
	return out
}

// SourceDocument is an extracted document ready for chunking.
type SourceDocument struct {
	Content  string
	Metadata Metadata
}

// ChunkRecord is one emitted chunk with positional and provenance metadata.
type ChunkRecord struct {
	Content        string
	ChunkIndex     int // Dense, 0-based over emitted chunks
	SectionIndex   int // Position of the first contributing section before merging
	ChunkType      string
	OriginalLength int // Character count of the full source content
	TableBlocks    int // Number of blank-line separated blocks detected as tables
	Metadata       Metadata
}

// Fields returns the record's metadata as one flat mapping: the source
// provenance followed by the chunk's own positional fields.
func (c ChunkRecord) Fields() map[string]any {
	out := c.Metadata.Fields()
	out["chunk_index"] = c.ChunkIndex
	out["chunk_type"] = c.ChunkType
	out["original_length"] = c.OriginalLength
	out["section_index"] = c.SectionIndex
	out["table_blocks"] = c.TableBlocks
	return out
}

// MarshalJSON writes the record as its content plus the flattened Fields.
func (c ChunkRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}{c.Content, c.Fields()})
}
