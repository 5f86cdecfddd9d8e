// Package costs provides cost estimation for API usage.
package costs

import (
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These are based on 2026 market rates and can be overridden via environment variables.
var (
	// STTCentsPerMinute is the cost per minute of transcribed audio.
	// Default: $0.006/min = 0.6 cents/min
	STTCentsPerMinute = getEnvFloat("COST_STT_CENTS_PER_MIN", 0.6)

	// GrokCentsPerThousandInputTokens is the cost per 1K input tokens.
	// Default: $2.00/1M = 0.2 cents/1K tokens
	GrokCentsPerThousandInputTokens = getEnvFloat("COST_GROK_INPUT_CENTS_PER_1K", 0.2)

	// GrokCentsPerThousandOutputTokens is the cost per 1K output tokens.
	// Default: $10.00/1M = 1.0 cents/1K tokens
	GrokCentsPerThousandOutputTokens = getEnvFloat("COST_GROK_OUTPUT_CENTS_PER_1K", 1.0)

	// ElevenLabsCentsPerThousandChars is the cost per 1K characters for ElevenLabs TTS.
	// Default: $0.18/1K chars = 18 cents/1K chars
	ElevenLabsCentsPerThousandChars = getEnvFloat("COST_ELEVENLABS_CENTS_PER_1K_CHARS", 18.0)
)

// SessionMetrics contains the raw usage of one coaching exchange.
type SessionMetrics struct {
	STTDurationSeconds int // Audio seconds sent for recognition
	LLMInputTokens     int // Tokens sent to the generation service
	LLMOutputTokens    int // Tokens received from the generation service
	TTSCharacters      int // Characters sent for synthesis
}

// SessionCosts contains the estimated costs for an exchange in cents.
type SessionCosts struct {
	STTCostCents   int
	LLMCostCents   int
	TTSCostCents   int
	TotalCostCents int
}

// EstimateSessionCosts computes the costs of one exchange from its usage
// metrics.
func EstimateSessionCosts(m SessionMetrics) SessionCosts {
	sttMinutes := float64(m.STTDurationSeconds) / 60.0
	sttCents := sttMinutes * STTCentsPerMinute

	// LLM costs: per 1K tokens
	llmInputCents := (float64(m.LLMInputTokens) / 1000.0) * GrokCentsPerThousandInputTokens
	llmOutputCents := (float64(m.LLMOutputTokens) / 1000.0) * GrokCentsPerThousandOutputTokens
	llmCents := llmInputCents + llmOutputCents

	// TTS costs: per 1K characters
	ttsCents := (float64(m.TTSCharacters) / 1000.0) * ElevenLabsCentsPerThousandChars

	// Round to nearest cent (we store as integers)
	costs := SessionCosts{
		STTCostCents: roundToInt(sttCents),
		LLMCostCents: roundToInt(llmCents),
		TTSCostCents: roundToInt(ttsCents),
	}
	costs.TotalCostCents = costs.STTCostCents + costs.LLMCostCents + costs.TTSCostCents

	return costs
}

// EstimateTokens approximates the token count of a prompt or response.
// Four characters per token is close enough for cost tracking.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
