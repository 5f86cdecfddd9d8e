package coach

import (
	"context"
	"strings"
	"testing"

	"github.com/nmehta/talkiee/internal/analysis"
	"github.com/nmehta/talkiee/internal/llm"
)

type generatorFunc func(ctx context.Context, prompt string) string

func (f generatorFunc) Generate(ctx context.Context, prompt string) string { return f(ctx, prompt) }

func fixedGenerator(response string) (Generator, *[]string) {
	var prompts []string
	return generatorFunc(func(ctx context.Context, prompt string) string {
		prompts = append(prompts, prompt)
		return response
	}), &prompts
}

func TestEmptyInputShortCircuits(t *testing.T) {
	gen, prompts := fixedGenerator("should not be used")
	c := New(gen)
	h := NewHistory()
	m := analysis.Metrics{AveragePitchHz: 180, PaceWordsPerSec: 2}

	results := []string{
		c.TextFeedback(context.Background(), "", h),
		c.VoiceFeedback(context.Background(), "   ", m, h),
		c.InterviewFeedback(context.Background(), "", m, h),
		c.StorytellingFeedback(context.Background(), "\n\t", m, h),
		c.PresentationFeedback(context.Background(), "", m),
	}

	for i, got := range results {
		if got != NoInputMessage {
			t.Errorf("mode %d = %q, want %q", i, got, NoInputMessage)
		}
	}
	if len(*prompts) != 0 {
		t.Errorf("generator called %d times, want 0 (no external call on empty input)", len(*prompts))
	}
	if h.Len() != 0 {
		t.Errorf("history length = %d, want 0 (no mutation on short-circuit)", h.Len())
	}
}

func TestTextFeedbackAppendsHistory(t *testing.T) {
	gen, _ := fixedGenerator("Great clarity overall.")
	c := New(gen)
	h := NewHistory()

	got := c.TextFeedback(context.Background(), "Hello, I would like feedback.", h)
	if got != "Great clarity overall." {
		t.Errorf("feedback = %q", got)
	}

	turns := h.Turns()
	if len(turns) != 2 {
		t.Fatalf("history length = %d, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "Hello, I would like feedback." {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "Great clarity overall." {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestTextFeedbackEmbedsHistory(t *testing.T) {
	gen, prompts := fixedGenerator("ok")
	c := New(gen)
	h := NewHistory()
	h.Append(RoleUser, "earlier question")
	h.Append(RoleAssistant, "earlier answer")

	c.TextFeedback(context.Background(), "next question", h)

	if len(*prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(*prompts))
	}
	prompt := (*prompts)[0]
	if !strings.Contains(prompt, "User: earlier question") || !strings.Contains(prompt, "Assistant: earlier answer") {
		t.Errorf("prompt should embed serialized history, got:\n%s", prompt)
	}
}

func TestVoiceFeedbackEmbedsMetricsAndFillers(t *testing.T) {
	gen, prompts := fixedGenerator("ok")
	c := New(gen)
	m := analysis.Metrics{AveragePitchHz: 214.5, PaceWordsPerSec: 2.25}

	c.VoiceFeedback(context.Background(), "Um, so I was like thinking", m, nil)

	prompt := (*prompts)[0]
	for _, want := range []string{"214.50 Hz", "2.25 words/sec", "Um, so, like", "Total: 3"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestPresentationFeedbackTakesNoHistory(t *testing.T) {
	gen, prompts := fixedGenerator("fine work")
	c := New(gen)

	got := c.PresentationFeedback(context.Background(), "my presentation", analysis.Metrics{})
	if got != "fine work" {
		t.Errorf("feedback = %q", got)
	}
	if strings.Contains((*prompts)[0], "Conversation History") {
		t.Error("presentation prompt must not embed conversation history")
	}
}

func TestFeedbackWithNilHistory(t *testing.T) {
	// Callers without a running conversation pass nil; every mode must
	// still produce feedback.
	gen, prompts := fixedGenerator("standalone review")
	c := New(gen)
	m := analysis.Metrics{AveragePitchHz: 190, PaceWordsPerSec: 2}

	results := []string{
		c.TextFeedback(context.Background(), "some text", nil),
		c.InterviewFeedback(context.Background(), "my answer", m, nil),
		c.StorytellingFeedback(context.Background(), "my story", m, nil),
	}
	for i, got := range results {
		if got != "standalone review" {
			t.Errorf("mode %d = %q, want the generated feedback", i, got)
		}
	}
	if len(*prompts) != 3 {
		t.Errorf("generator called %d times, want 3", len(*prompts))
	}
}

func TestHistoryGrowsOnFailureResponseToo(t *testing.T) {
	// A degraded sentinel response is still a completed exchange.
	gen, _ := fixedGenerator(llm.FailureSentinel)
	c := New(gen)
	h := NewHistory()

	c.VoiceFeedback(context.Background(), "some words", analysis.Metrics{}, h)
	if h.Len() != 2 {
		t.Errorf("history length = %d, want 2", h.Len())
	}
}

func TestInterviewQuestionFallback(t *testing.T) {
	gen, _ := fixedGenerator(llm.FailureSentinel)
	c := New(gen)

	got := c.InterviewQuestion(context.Background())
	if !strings.HasPrefix(got, "Describe a time when you faced a challenge related to ") {
		t.Errorf("fallback question = %q", got)
	}
}

func TestPassageFallback(t *testing.T) {
	gen, _ := fixedGenerator(llm.EmptyResponse)
	c := New(gen)

	if got := c.Passage(context.Background()); got != fallbackPassage {
		t.Errorf("Passage = %q, want fallback", got)
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "a")
	h.Append(RoleAssistant, "b")
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", h.Len())
	}
	if h.Transcript() != "" {
		t.Errorf("Transcript after Reset = %q, want empty", h.Transcript())
	}
}
