package index

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docindex/internal/embed"
)

// SearchDocument is one entry in the search index.
type SearchDocument struct {
	ChunkID    string    `json:"chunk_id"`
	ParentID   string    `json:"parent_id"`
	Chunk      string    `json:"chunk"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	ChunkType  string    `json:"chunk_type"`
	ChunkIndex int       `json:"chunk_index"`
	Metadata   string    `json:"metadata"`
	TextVector []float64 `json:"text_vector"`
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_\-=]`)

// SafeKey builds a document key from the source name, the position of the
// chunk in the indexed list and its chunk index. Characters the index does
// not accept in keys become underscores.
func SafeKey(source string, i, chunkIndex int) string {
	safe := strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(source)
	safe = unsafeKeyChars.ReplaceAllString(safe, "_")
	return fmt.Sprintf("%s_%d_%d", safe, i, chunkIndex)
}

// BuildDocuments converts embedded chunks into index documents. The
// metadata field carries every chunk field plus the vector dimension as
// JSON; the vector itself only goes in text_vector.
func BuildDocuments(items []embed.Embedded) ([]SearchDocument, error) {
	docs := make([]SearchDocument, 0, len(items))
	for i, it := range items {
		source := it.Chunk.Metadata.Source
		if source == "" {
			source = "unknown"
		}
		title := source
		if t, ok := it.Chunk.Metadata.Extra["title"].(string); ok && t != "" {
			title = t
		}

		fields := it.Chunk.Fields()
		fields["embedding_dimension"] = it.Dimension()
		meta, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata for %s chunk %d: %w", source, it.Chunk.ChunkIndex, err)
		}

		docs = append(docs, SearchDocument{
			ChunkID:    SafeKey(source, i, it.Chunk.ChunkIndex),
			ParentID:   source,
			Chunk:      it.Chunk.Content,
			Title:      title,
			Source:     source,
			ChunkType:  it.Chunk.ChunkType,
			ChunkIndex: it.Chunk.ChunkIndex,
			Metadata:   string(meta),
			TextVector: it.Vector,
		})
	}
	return docs, nil
}
