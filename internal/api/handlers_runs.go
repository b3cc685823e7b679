package api

import (
	"net/http"
)

// handleRun queues one job per pending blob in the source container.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.orchestrator.SubmitPending(r.Context())
	if err != nil && len(jobs) == 0 {
		s.log.Error("submit pending failed", "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	queued := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		queued = append(queued, jobAccepted(j))
	}
	resp := map[string]any{"queued": len(jobs), "jobs": queued}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusAccepted, resp)
}
