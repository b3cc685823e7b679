package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/docindex/internal/chunker"
	"github.com/dgallion1/docindex/internal/document"
)

type chunkRequest struct {
	Content         string         `json:"content"`
	Source          string         `json:"source"`
	MinSectionChars int            `json:"min_section_chars"`
	Metadata        map[string]any `json:"metadata"`
}

// handleChunk runs the chunker over inline markdown and returns the chunks
// without embedding or indexing them.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "inline"
	}
	minChars := req.MinSectionChars
	if minChars <= 0 {
		minChars = s.cfg.MinSectionChars
	}

	c := chunker.New(chunker.Config{MinSectionChars: minChars, Logger: s.log})
	chunks := c.ChunkDocument(document.SourceDocument{
		Content: req.Content,
		Metadata: document.Metadata{
			Source:        source,
			ContentFormat: document.ContentFormatMarkdown,
			Extra:         req.Metadata,
		},
	})
	if chunks == nil {
		chunks = []document.ChunkRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":            source,
		"min_section_chars": minChars,
		"chunks":            chunks,
	})
}
