package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nmehta/talkiee/internal/coach"
	"github.com/nmehta/talkiee/internal/eventlog"
	"github.com/nmehta/talkiee/internal/history"
	"github.com/nmehta/talkiee/internal/session"
	"github.com/nmehta/talkiee/internal/stt"
)

type RouterConfig struct {
	// JWT Authentication
	AccessCode string
	JWTSecret  string
	JWTExpiry  time.Duration

	// Pipeline settings
	ChunkSeconds int
	Language     string
}

// Deps are the pipeline collaborators shared across requests. STT and
// Events may be nil; the affected endpoints then degrade or 503.
type Deps struct {
	Coach  *coach.Coach
	STT    stt.Client
	Store  *history.Store
	Events *eventlog.Logger
}

type Router struct {
	cfg    RouterConfig
	logger *log.Logger
	deps   Deps
	jobs   *jobRegistry
	mux    *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, deps Deps) http.Handler {
	if deps.Events == nil {
		deps.Events = eventlog.New(nil)
	}
	r := &Router{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		jobs:   newJobRegistry(),
		mux:    http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Auth endpoints (public)
	r.mux.HandleFunc("POST /api/auth/token", r.handleToken)

	// Feedback endpoints (protected)
	r.mux.HandleFunc("POST /api/feedback/text", r.withAuth(r.handleTextFeedback))
	r.mux.HandleFunc("POST /api/feedback/audio", r.withAuth(r.handleAudioFeedback))
	r.mux.HandleFunc("POST /api/feedback/document", r.withAuth(r.handleDocumentFeedback))

	// History and progress (protected)
	r.mux.HandleFunc("GET /api/history", r.withAuth(r.handleHistory))
	r.mux.HandleFunc("GET /api/progress", r.withAuth(r.handleProgress))

	// Practice exercises (protected)
	r.mux.HandleFunc("GET /api/exercises/interview-question", r.withAuth(r.handleInterviewQuestion))
	r.mux.HandleFunc("GET /api/exercises/passage", r.withAuth(r.handlePassage))
	r.mux.HandleFunc("POST /api/exercises/summary", r.withAuth(r.handleSummaryFeedback))

	// Async job progress (token carried in query, websockets cannot set headers)
	r.mux.HandleFunc("GET /api/sessions/{id}/ws", r.handleSessionWS)
}

// newSession builds a per-request session from the shared collaborators.
func (r *Router) newSession(mode session.Mode) *session.Session {
	s := session.New(session.Config{
		Coach:        r.deps.Coach,
		STT:          r.deps.STT,
		Store:        r.deps.Store,
		Events:       r.deps.Events,
		Logger:       r.logger,
		ChunkSeconds: r.cfg.ChunkSeconds,
		Language:     r.cfg.Language,
	})
	s.SetMode(mode)
	return s
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
