package chunker

import (
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/docindex/internal/document"
)

func testDoc(content string) document.SourceDocument {
	return document.SourceDocument{
		Content: content,
		Metadata: document.Metadata{
			Source:           "report.pdf",
			ExtractionMethod: document.MethodLayout,
			Pages:            3,
			ContentFormat:    document.ContentFormatMarkdown,
			Extra:            map[string]any{"department": "finance"},
		},
	}
}

func TestChunkDocument_EndToEnd(t *testing.T) {
	input := "Intro line.\n\n# Section One\nShort.\n\n## Sub\nThis is a longer paragraph exceeding the minimum character threshold easily."
	c := New(Config{MinSectionChars: 20})
	chunks := c.ChunkDocument(testDoc(input))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "Intro line.\n\n# Section One\nShort." {
		t.Errorf("chunk 0: unexpected content %q", chunks[0].Content)
	}
	if chunks[1].Content != "## Sub\nThis is a longer paragraph exceeding the minimum character threshold easily." {
		t.Errorf("chunk 1: unexpected content %q", chunks[1].Content)
	}
	if chunks[0].SectionIndex != 0 || chunks[1].SectionIndex != 2 {
		t.Errorf("expected section indices 0 and 2, got %d and %d", chunks[0].SectionIndex, chunks[1].SectionIndex)
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, ch.ChunkIndex)
		}
		if ch.ChunkType != document.ChunkTypeHeaderSection {
			t.Errorf("chunk %d: expected type %q, got %q", i, document.ChunkTypeHeaderSection, ch.ChunkType)
		}
		if ch.OriginalLength != len(input) {
			t.Errorf("chunk %d: expected original length %d, got %d", i, len(input), ch.OriginalLength)
		}
	}
}

func TestChunkDocument_MetadataPassThrough(t *testing.T) {
	doc := testDoc("# Only\n" + strings.Repeat("body ", 40))
	chunks := New(DefaultConfig()).ChunkDocument(doc)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	m := chunks[0].Metadata
	if m.Source != "report.pdf" || m.Pages != 3 || m.ExtractionMethod != document.MethodLayout {
		t.Errorf("provenance not carried through: %+v", m)
	}
	if m.Extra["department"] != "finance" {
		t.Errorf("expected extra field carried through, got %v", m.Extra)
	}

	// Records must not share the caller's map.
	m.Extra["department"] = "changed"
	if doc.Metadata.Extra["department"] != "finance" {
		t.Error("chunk metadata aliases source metadata")
	}
}

func TestChunkDocument_OriginalLengthCountsCharacters(t *testing.T) {
	input := "# Café\n" + strings.Repeat("é", 150)
	chunks := New(DefaultConfig()).ChunkDocument(testDoc(input))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if want := len([]rune(input)); chunks[0].OriginalLength != want {
		t.Errorf("expected original length %d characters, got %d", want, chunks[0].OriginalLength)
	}
}

func TestChunkDocument_CompactsTablesPerSection(t *testing.T) {
	input := "# Results\n\nQuarterly figures follow in the table below, as reported by the finance team.\n\n" +
		"<table>\n  <tr>\n    <td>Q1</td>\n    <td>100</td>\n  </tr>\n</table>"
	chunks := New(DefaultConfig()).ChunkDocument(testDoc(input))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, "<table><tr><td>Q1</td><td>100</td></tr></table>") {
		t.Errorf("expected compacted table, got %q", chunks[0].Content)
	}
}

func TestChunkDocument_CountsTableBlocks(t *testing.T) {
	input := "# Prices\n\nThe price list is below and applies to all regions from next quarter onwards.\n\n| item | price |\n|---|---|\n| a | 1 |"
	chunks := New(DefaultConfig()).ChunkDocument(testDoc(input))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].TableBlocks != 1 {
		t.Errorf("expected 1 table block, got %d", chunks[0].TableBlocks)
	}
}

func TestChunkDocument_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\n\t", "\x00\x01"} {
		if chunks := New(DefaultConfig()).ChunkDocument(testDoc(in)); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", in, len(chunks))
		}
	}
}

func TestChunkDocument_NoHeadings(t *testing.T) {
	chunks := New(DefaultConfig()).ChunkDocument(testDoc("just   some\n\n\n\ntext"))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "just some\n\ntext" {
		t.Errorf("unexpected content %q", chunks[0].Content)
	}
}

func TestChunkDocument_DefaultConfigFallback(t *testing.T) {
	// Zero-value config uses the default threshold: "# A\nshort" merges forward.
	input := "# A\nshort\n# B\n" + strings.Repeat("long ", 30)
	chunks := New(Config{}).ChunkDocument(testDoc(input))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk with default threshold, got %d", len(chunks))
	}
}

func TestAssemble_DenseIndexOverDroppedSections(t *testing.T) {
	sections := []Section{
		{Text: "first", Index: 0},
		{Text: "   ", Index: 1},
		{Text: "", Index: 2},
		{Text: "second", Index: 3},
		{Text: "\n\t", Index: 4},
		{Text: "third", Index: 5},
	}
	chunks := Assemble(sections, document.Metadata{Source: "x"}, 42)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantSections := []int{0, 3, 5}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d: expected dense index %d, got %d", i, i, ch.ChunkIndex)
		}
		if ch.SectionIndex != wantSections[i] {
			t.Errorf("chunk %d: expected section index %d, got %d", i, wantSections[i], ch.SectionIndex)
		}
		if ch.OriginalLength != 42 {
			t.Errorf("chunk %d: expected original length 42, got %d", i, ch.OriginalLength)
		}
	}
}

func TestChunkAll_PreservesDocumentOrder(t *testing.T) {
	a := testDoc("# A\n" + strings.Repeat("alpha ", 30))
	b := testDoc("# B\n" + strings.Repeat("beta ", 30))
	b.Metadata.Source = "second.pdf"

	chunks := New(DefaultConfig()).ChunkAll([]document.SourceDocument{a, b})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.Source != "report.pdf" || chunks[1].Metadata.Source != "second.pdf" {
		t.Errorf("unexpected order: %q, %q", chunks[0].Metadata.Source, chunks[1].Metadata.Source)
	}
	// Indices restart per document.
	if chunks[1].ChunkIndex != 0 {
		t.Errorf("expected per-document chunk index 0, got %d", chunks[1].ChunkIndex)
	}
}

func TestChunker_ConcurrentUse(t *testing.T) {
	c := New(DefaultConfig())
	input := "Intro.\n\n# One\n" + strings.Repeat("one ", 40) + "\n\n# Two\n" + strings.Repeat("two ", 40)
	want := c.ChunkDocument(testDoc(input))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.ChunkDocument(testDoc(input))
			if len(got) != len(want) {
				t.Errorf("expected %d chunks, got %d", len(want), len(got))
				return
			}
			for i := range got {
				if got[i].Content != want[i].Content {
					t.Errorf("chunk %d differs under concurrency", i)
				}
			}
		}()
	}
	wg.Wait()
}
