// Package coach turns transcripts, acoustic metrics, and filler statistics
// into structured prompts and runs them against the generation service.
package coach

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/nmehta/talkiee/internal/analysis"
	"github.com/nmehta/talkiee/internal/llm"
)

// NoInputMessage is returned without any external call when the
// transcript is empty.
const NoInputMessage = "No valid input detected."

// Generator runs a prompt against the generation service and always
// returns text.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Coach builds mode-specific prompts and manages conversation history
// growth.
type Coach struct {
	gen     Generator
	fillers *analysis.FillerDetector
}

// New creates a coach backed by the given generator.
func New(gen Generator) *Coach {
	return &Coach{
		gen:     gen,
		fillers: analysis.NewFillerDetector(64),
	}
}

// Fillers exposes the coach's filler detector for callers that want the
// raw report alongside the feedback.
func (c *Coach) Fillers(text string) analysis.FillerReport {
	return c.fillers.Detect(text)
}

// TextFeedback reviews written or transcribed text for tone, clarity,
// grammar, and delivery, with conversation continuity.
func (c *Coach) TextFeedback(ctx context.Context, text string, history *History) string {
	if strings.TrimSpace(text) == "" {
		return NoInputMessage
	}
	response := c.gen.Generate(ctx, textPrompt(text, history))
	c.record(history, text, response)
	return response
}

// VoiceFeedback reviews vocal delivery using the recording's acoustic
// metrics.
func (c *Coach) VoiceFeedback(ctx context.Context, text string, m analysis.Metrics, history *History) string {
	if strings.TrimSpace(text) == "" {
		return NoInputMessage
	}
	response := c.gen.Generate(ctx, voicePrompt(text, m, c.fillers.Detect(text)))
	c.record(history, text, response)
	return response
}

// InterviewFeedback reviews an interview answer, with conversation
// continuity so follow-up answers are judged in context.
func (c *Coach) InterviewFeedback(ctx context.Context, text string, m analysis.Metrics, history *History) string {
	if strings.TrimSpace(text) == "" {
		return NoInputMessage
	}
	response := c.gen.Generate(ctx, interviewPrompt(text, m, c.fillers.Detect(text), history))
	c.record(history, text, response)
	return response
}

// StorytellingFeedback reviews a narrated story.
func (c *Coach) StorytellingFeedback(ctx context.Context, text string, m analysis.Metrics, history *History) string {
	if strings.TrimSpace(text) == "" {
		return NoInputMessage
	}
	response := c.gen.Generate(ctx, storytellingPrompt(text, m, c.fillers.Detect(text), history))
	c.record(history, text, response)
	return response
}

// PresentationFeedback reviews presentation content and delivery. It
// takes no conversation history: each assessment stands alone.
func (c *Coach) PresentationFeedback(ctx context.Context, text string, m analysis.Metrics) string {
	if strings.TrimSpace(text) == "" {
		return NoInputMessage
	}
	return c.gen.Generate(ctx, presentationPrompt(text, m, c.fillers.Detect(text)))
}

// record appends both sides of a completed exchange. This is the only
// way a History grows, and it never happens on an empty-input
// short-circuit.
func (c *Coach) record(history *History, userText, response string) {
	if history == nil {
		return
	}
	history.Append(RoleUser, userText)
	history.Append(RoleAssistant, response)
}

var interviewTopics = []string{
	"behavioral",
	"situational",
	"cultural fit",
	"strengths and weaknesses",
	"conflict resolution",
	"communication skills",
	"team collaboration",
}

// InterviewQuestion generates a practice HR interview question on a
// randomized topic, with a deterministic fallback when the service is
// unavailable.
func (c *Coach) InterviewQuestion(ctx context.Context) string {
	topic := interviewTopics[rand.Intn(len(interviewTopics))]
	response := c.gen.Generate(ctx, interviewQuestionPrompt(topic))
	if response == llm.FailureSentinel || response == llm.EmptyResponse {
		return fmt.Sprintf("Describe a time when you faced a challenge related to %s and how you handled it.", topic)
	}
	return response
}

const fallbackPassage = "Effective communication is key to building trust and empathy. " +
	"Listening actively helps understand others' perspectives. " +
	"Clear communication promotes teamwork and collaboration."

// Passage generates a short passage for summarization exercises.
func (c *Coach) Passage(ctx context.Context) string {
	response := c.gen.Generate(ctx, passagePrompt)
	if response == llm.FailureSentinel || response == llm.EmptyResponse {
		return fallbackPassage
	}
	return response
}

// SummaryFeedback reviews a user's summary of a passage for accuracy,
// coherence, and conciseness.
func (c *Coach) SummaryFeedback(ctx context.Context, passage, userSummary string) string {
	if strings.TrimSpace(userSummary) == "" {
		return NoInputMessage
	}
	return c.gen.Generate(ctx, summaryPrompt(passage, userSummary))
}
