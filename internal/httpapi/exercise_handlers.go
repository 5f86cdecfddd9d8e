package httpapi

import (
	"encoding/json"
	"net/http"
)

// handleInterviewQuestion returns a practice interview question
func (r *Router) handleInterviewQuestion(w http.ResponseWriter, req *http.Request) {
	question := r.deps.Coach.InterviewQuestion(req.Context())
	writeJSON(w, http.StatusOK, map[string]string{"question": question})
}

// handlePassage returns a short passage for the summarization exercise
func (r *Router) handlePassage(w http.ResponseWriter, req *http.Request) {
	passage := r.deps.Coach.Passage(req.Context())
	writeJSON(w, http.StatusOK, map[string]string{"passage": passage})
}

// handleSummaryFeedback reviews a user's summary of a passage
func (r *Router) handleSummaryFeedback(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Passage string `json:"passage"`
		Summary string `json:"summary"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	feedback := r.deps.Coach.SummaryFeedback(req.Context(), body.Passage, body.Summary)
	writeJSON(w, http.StatusOK, map[string]string{"feedback": feedback})
}
