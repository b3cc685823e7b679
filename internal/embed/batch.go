package embed

import "github.com/dgallion1/docindex/internal/document"

// Embedded pairs a chunk with its vector.
type Embedded struct {
	Chunk  document.ChunkRecord
	Vector []float64
}

// Dimension is the length of the vector.
func (e Embedded) Dimension() int {
	return len(e.Vector)
}

// SplitBatches groups chunks in order so that no batch holds more than size
// chunks or more than maxTokens estimated tokens. A single chunk over the
// token cap still gets its own batch. Non-positive limits are ignored.
func SplitBatches(chunks []document.ChunkRecord, size, maxTokens int) [][]document.ChunkRecord {
	var batches [][]document.ChunkRecord
	var cur []document.ChunkRecord
	tokens := 0
	for _, ch := range chunks {
		t := EstimateTokens(ch.Content)
		full := size > 0 && len(cur) >= size
		over := maxTokens > 0 && len(cur) > 0 && tokens+t > maxTokens
		if full || over {
			batches = append(batches, cur)
			cur, tokens = nil, 0
		}
		cur = append(cur, ch)
		tokens += t
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// Texts returns the chunk contents in order.
func Texts(chunks []document.ChunkRecord) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Content
	}
	return out
}
