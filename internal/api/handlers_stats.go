package api

import (
	"net/http"

	"github.com/dgallion1/docindex/internal/remote"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	collaborators := map[string]remote.StatsSnapshot{}
	if s.stats != nil {
		collaborators = s.stats.Snapshot()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"collaborators": collaborators,
		"queue_depth":   s.orchestrator.QueueDepth(),
		"jobs":          s.orchestrator.JobCounts(),
	})
}
