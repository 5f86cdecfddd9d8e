// Package session orchestrates a single coaching exchange: input in one of
// several forms, transcription or extraction, acoustic analysis, feedback
// generation, optional speech synthesis, and history recording.
package session

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/nmehta/talkiee/internal/analysis"
	"github.com/nmehta/talkiee/internal/coach"
	"github.com/nmehta/talkiee/internal/costs"
	"github.com/nmehta/talkiee/internal/docs"
	"github.com/nmehta/talkiee/internal/eventlog"
	"github.com/nmehta/talkiee/internal/history"
	"github.com/nmehta/talkiee/internal/llm"
	"github.com/nmehta/talkiee/internal/stt"
	"github.com/nmehta/talkiee/internal/tts"
)

// Mode selects which coaching prompt the session builds.
type Mode string

const (
	ModeText         Mode = "text"
	ModeVoice        Mode = "voice"
	ModeInterview    Mode = "interview"
	ModeStorytelling Mode = "storytelling"
	ModePresentation Mode = "presentation"
)

// ParseMode maps a user-supplied mode name to a Mode, defaulting to text.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeVoice:
		return ModeVoice
	case ModeInterview:
		return ModeInterview
	case ModeStorytelling:
		return ModeStorytelling
	case ModePresentation:
		return ModePresentation
	default:
		return ModeText
	}
}

// Result is the outcome of one handled input.
type Result struct {
	Transcript  string                `json:"transcript"`
	Metrics     analysis.Metrics      `json:"metrics"`
	Fillers     analysis.FillerReport `json:"fillers"`
	Feedback    string                `json:"feedback"`
	ReviewScore int                   `json:"review_score"`

	// AudioPath is set when feedback was synthesized to speech. The
	// caller owns the file and deletes it after playback.
	AudioPath string `json:"audio_path,omitempty"`
}

// Config wires a session's collaborators. STT, TTS, Store and Events are
// optional; a nil value disables that stage.
type Config struct {
	Coach        *coach.Coach
	STT          stt.Client
	TTS          tts.Client
	Store        *history.Store
	Events       *eventlog.Logger
	Logger       *log.Logger
	ChunkSeconds int
	Language     string

	// Speak synthesizes every generated feedback to an audio file.
	Speak bool
}

// Session holds per-conversation state. Not safe for concurrent use; the
// HTTP layer creates one session per request or job.
type Session struct {
	id        string
	mode      Mode
	cfg       Config
	history   *coach.History
	extractor *docs.Extractor
	ended     bool
}

// New creates a session in text mode with a fresh conversation history.
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Events == nil {
		cfg.Events = eventlog.New(nil)
	}
	s := &Session{
		id:        uuid.NewString(),
		mode:      ModeText,
		cfg:       cfg,
		history:   coach.NewHistory(),
		extractor: docs.NewExtractor(16),
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventSessionStarted, map[string]any{"mode": string(s.mode)})
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the active coaching mode.
func (s *Session) Mode() Mode { return s.mode }

// End marks the session finished. Safe to call more than once; only the
// first call emits the event.
func (s *Session) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.cfg.Events.LogAsync(s.id, eventlog.EventSessionEnded, map[string]any{"mode": string(s.mode)})
}

// SetMode switches the coaching mode. Changing mode discards the
// conversation history so prompts from one exercise never leak into
// another.
func (s *Session) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventModeChanged, map[string]any{
		"from": string(s.mode),
		"to":   string(m),
	})
	s.mode = m
	s.history.Reset()
}

// HandleText runs the pipeline on typed input. No acoustic stage applies.
func (s *Session) HandleText(ctx context.Context, text string) Result {
	feedback := s.feedback(ctx, text, analysis.Metrics{})
	res := Result{
		Transcript:  text,
		Fillers:     s.cfg.Coach.Fillers(text),
		Feedback:    feedback,
		ReviewScore: history.Score(feedback),
	}
	s.finish(ctx, &res, text, "")
	return res
}

// HandleAudioFile transcribes and analyzes a recorded WAV file, then
// generates feedback. The file itself is left in place; it belongs to the
// caller. progress may be nil.
func (s *Session) HandleAudioFile(ctx context.Context, path string, progress stt.ProgressFunc) (Result, error) {
	transcript, err := stt.TranscribeFile(ctx, s.cfg.STT, path, s.cfg.ChunkSeconds, s.cfg.Language, progress, s.chunkOutcome)
	if err != nil {
		return Result{}, err
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventTranscriptReady, map[string]any{"chars": len(transcript)})

	m, err := analysis.AnalyzeFile(path, s.cfg.ChunkSeconds)
	if err != nil {
		return Result{}, err
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventAnalysisCompleted, map[string]any{
		"pitch_hz": m.AveragePitchHz,
		"pace_wps": m.PaceWordsPerSec,
	})

	feedback := s.feedback(ctx, transcript, m)
	res := Result{
		Transcript:  transcript,
		Metrics:     m,
		Fillers:     s.cfg.Coach.Fillers(transcript),
		Feedback:    feedback,
		ReviewScore: history.Score(feedback),
	}
	s.finish(ctx, &res, "", transcript)
	return res, nil
}

// HandleLive captures one utterance from the recorder, transcribes it, and
// runs the rest of the pipeline. The capture's temp file is always deleted
// before returning.
func (s *Session) HandleLive(ctx context.Context, rec stt.Recorder) Result {
	s.cfg.Events.LogAsync(s.id, eventlog.EventCaptureStarted, nil)

	text, audioPath := stt.Live(ctx, rec, s.cfg.STT, s.cfg.Language)
	if audioPath == "" {
		// Capture or recognition failed; the sentinel text is the
		// whole result and nothing is recorded.
		s.cfg.Events.LogAsync(s.id, eventlog.EventCaptureTimeout, map[string]any{"detail": text})
		return Result{Transcript: text}
	}
	defer os.Remove(audioPath)

	m, err := analysis.AnalyzeFile(audioPath, s.cfg.ChunkSeconds)
	if err != nil {
		s.cfg.Logger.Printf("session %s: acoustic analysis failed: %v", s.id, err)
		m = analysis.Metrics{}
	}

	feedback := s.feedback(ctx, text, m)
	res := Result{
		Transcript:  text,
		Metrics:     m,
		Fillers:     s.cfg.Coach.Fillers(text),
		Feedback:    feedback,
		ReviewScore: history.Score(feedback),
	}
	s.finish(ctx, &res, "", text)
	return res
}

// HandleDocument extracts the text of an uploaded document and reviews it
// as written input.
func (s *Session) HandleDocument(ctx context.Context, r io.Reader, ext string) (Result, error) {
	text, err := s.extractor.Extract(r, ext)
	if err != nil {
		return Result{}, err
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventDocumentExtracted, map[string]any{
		"ext":   ext,
		"chars": len(text),
	})
	return s.HandleText(ctx, text), nil
}

// InterviewQuestion asks the generator for a practice question.
func (s *Session) InterviewQuestion(ctx context.Context) string {
	return s.cfg.Coach.InterviewQuestion(ctx)
}

// Passage returns a short passage for the summarization exercise.
func (s *Session) Passage(ctx context.Context) string {
	return s.cfg.Coach.Passage(ctx)
}

// SummaryFeedback reviews a user summary of a passage.
func (s *Session) SummaryFeedback(ctx context.Context, passage, summary string) string {
	return s.cfg.Coach.SummaryFeedback(ctx, passage, summary)
}

// chunkOutcome records each transcription segment's fate in the event
// log.
func (s *Session) chunkOutcome(index, total int, err error) {
	if err != nil {
		s.cfg.Events.LogAsync(s.id, eventlog.EventChunkFailed, map[string]any{
			"segment": index,
			"of":      total,
			"error":   err.Error(),
		})
		return
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventChunkTranscribed, map[string]any{
		"segment": index,
		"of":      total,
	})
}

// feedback dispatches to the mode's coach call, bracketing the generation
// with events. Empty input short-circuits inside the coach without an
// external call, so it gets no generation events.
func (s *Session) feedback(ctx context.Context, text string, m analysis.Metrics) string {
	if strings.TrimSpace(text) == "" {
		return s.dispatch(ctx, text, m)
	}

	s.cfg.Events.LogAsync(s.id, eventlog.EventGenerationStarted, map[string]any{"mode": string(s.mode)})
	ctx = llm.WithRetryNotify(ctx, func(attempt int, err error) {
		s.cfg.Events.LogAsync(s.id, eventlog.EventGenerationRetried, map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
	})

	response := s.dispatch(ctx, text, m)
	if response == llm.FailureSentinel {
		s.cfg.Events.LogAsync(s.id, eventlog.EventGenerationFailed, nil)
	} else {
		s.cfg.Events.LogAsync(s.id, eventlog.EventGenerationCompleted, map[string]any{"chars": len(response)})
	}
	return response
}

func (s *Session) dispatch(ctx context.Context, text string, m analysis.Metrics) string {
	switch s.mode {
	case ModeVoice:
		return s.cfg.Coach.VoiceFeedback(ctx, text, m, s.history)
	case ModeInterview:
		return s.cfg.Coach.InterviewFeedback(ctx, text, m, s.history)
	case ModeStorytelling:
		return s.cfg.Coach.StorytellingFeedback(ctx, text, m, s.history)
	case ModePresentation:
		return s.cfg.Coach.PresentationFeedback(ctx, text, m)
	default:
		return s.cfg.Coach.TextFeedback(ctx, text, s.history)
	}
}

// finish records the exchange and optionally synthesizes the feedback.
// Both stages are best effort; their failures never void the feedback.
func (s *Session) finish(ctx context.Context, res *Result, userInput, spokenText string) {
	if res.Feedback == "" || res.Feedback == coach.NoInputMessage {
		return
	}
	usage := costs.SessionMetrics{
		STTDurationSeconds: int(res.Metrics.DurationSeconds + 0.5),
		LLMInputTokens:     costs.EstimateTokens(userInput) + costs.EstimateTokens(spokenText),
		LLMOutputTokens:    costs.EstimateTokens(res.Feedback),
	}
	if s.cfg.Speak && s.cfg.TTS != nil {
		usage.TTSCharacters = len(res.Feedback)
	}
	s.cfg.Events.LogAsync(s.id, eventlog.EventFeedbackCompleted, map[string]any{
		"review_score":   res.ReviewScore,
		"est_cost_cents": costs.EstimateSessionCosts(usage).TotalCostCents,
	})

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Record(userInput, spokenText, res.Feedback, res.Metrics); err != nil {
			s.cfg.Logger.Printf("session %s: record history: %v", s.id, err)
		} else {
			s.cfg.Events.LogAsync(s.id, eventlog.EventHistoryRecorded, nil)
		}
	}

	if s.cfg.Speak && s.cfg.TTS != nil {
		s.cfg.Events.LogAsync(s.id, eventlog.EventTTSStarted, nil)
		path, err := tts.SynthesizeToFile(ctx, s.cfg.TTS, res.Feedback)
		if err != nil {
			s.cfg.Logger.Printf("session %s: synthesize feedback: %v", s.id, err)
			s.cfg.Events.LogAsync(s.id, eventlog.EventTTSError, map[string]any{"error": err.Error()})
			return
		}
		s.cfg.Events.LogAsync(s.id, eventlog.EventTTSCompleted, nil)
		res.AudioPath = path
	}
}
