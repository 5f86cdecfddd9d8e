package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nmehta/talkiee/internal/docs"
	"github.com/nmehta/talkiee/internal/session"
)

const maxUploadBytes = 32 << 20

// handleTextFeedback reviews typed text in the requested mode
func (r *Router) handleTextFeedback(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Text string `json:"text"`
		Mode string `json:"mode"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	sess := r.newSession(session.ParseMode(body.Mode))
	defer sess.End()
	res := sess.HandleText(req.Context(), body.Text)
	writeJSON(w, http.StatusOK, res)
}

// handleAudioFeedback transcribes and reviews an uploaded WAV recording.
// With async=1 it returns immediately with a session ID; progress and the
// final result are pushed over the session websocket.
func (r *Router) handleAudioFeedback(w http.ResponseWriter, req *http.Request) {
	if r.deps.STT == nil {
		http.Error(w, `{"error": "transcription not configured"}`, http.StatusServiceUnavailable)
		return
	}

	path, err := r.saveUpload(req)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusBadRequest)
		return
	}

	sess := r.newSession(session.ParseMode(req.FormValue("mode")))

	async := req.FormValue("async")
	if async == "1" || async == "true" {
		r.startAudioJob(sess, path)
		writeJSON(w, http.StatusAccepted, map[string]string{
			"session_id": sess.ID(),
			"ws":         "/api/sessions/" + sess.ID() + "/ws",
		})
		return
	}

	defer sess.End()
	defer os.Remove(path)
	res, err := sess.HandleAudioFile(req.Context(), path, nil)
	if err != nil {
		r.logger.Printf("httpapi: audio feedback failed: %v", err)
		captureError(req, err, "audio feedback failed")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// startAudioJob runs the pipeline in its own goroutine, publishing
// progress to the job's subscribers. The request context is gone by the
// time the work runs, so the job gets a background context.
func (r *Router) startAudioJob(sess *session.Session, path string) {
	j := r.jobs.create(sess.ID())

	go func() {
		defer os.Remove(path)
		defer j.finish()
		defer sess.End()

		progress := func(status string) {
			j.publish(jobEvent{Type: "progress", Status: status})
		}

		res, err := sess.HandleAudioFile(context.Background(), path, progress)
		if err != nil {
			r.logger.Printf("httpapi: audio job %s failed: %v", sess.ID(), err)
			j.publish(jobEvent{Type: "error", Error: err.Error()})
			return
		}
		j.publish(jobEvent{Type: "result", Result: &res})
	}()
}

// handleDocumentFeedback extracts an uploaded document and reviews its
// text
func (r *Router) handleDocumentFeedback(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error": "invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		http.Error(w, `{"error": "missing file field"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	sess := r.newSession(session.ParseMode(req.FormValue("mode")))
	defer sess.End()
	res, err := sess.HandleDocument(req.Context(), file, filepath.Ext(header.Filename))
	if err != nil {
		if errors.Is(err, docs.ErrUnsupportedFormat) {
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
			return
		}
		r.logger.Printf("httpapi: document feedback failed: %v", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// saveUpload writes the request's file field to a temp file and returns
// its path. The caller owns deletion.
func (r *Router) saveUpload(req *http.Request) (string, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", errors.New("invalid multipart form")
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		return "", errors.New("missing file field")
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "talkiee-upload-*.wav")
	if err != nil {
		return "", errors.New("failed to store upload")
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.New("failed to store upload")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.New("failed to store upload")
	}
	return tmp.Name(), nil
}
