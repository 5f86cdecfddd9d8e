package httpapi

import (
	"net/http"

	"github.com/nmehta/talkiee/internal/history"
)

// handleHistory returns the full interaction log, oldest first
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) {
	if r.deps.Store == nil {
		http.Error(w, `{"error": "history not configured"}`, http.StatusServiceUnavailable)
		return
	}

	entries, err := r.deps.Store.Load()
	if err != nil {
		r.logger.Printf("httpapi: load history: %v", err)
		captureError(req, err, "load history failed")
		http.Error(w, `{"error": "failed to load history"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleProgress returns rolling progress metrics derived from the log
func (r *Router) handleProgress(w http.ResponseWriter, req *http.Request) {
	if r.deps.Store == nil {
		http.Error(w, `{"error": "history not configured"}`, http.StatusServiceUnavailable)
		return
	}

	entries, err := r.deps.Store.Load()
	if err != nil {
		r.logger.Printf("httpapi: load history: %v", err)
		captureError(req, err, "load history failed")
		http.Error(w, `{"error": "failed to load history"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, history.Summarize(entries))
}
