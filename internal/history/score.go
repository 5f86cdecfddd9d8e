package history

import "strings"

// Sentiment keyword sets for the review-score heuristic. The score is a
// cheap offline proxy for feedback positivity so every persisted entry
// carries a score without an extra generation call.
var (
	positiveWords = []string{"good", "great", "excellent", "perfect", "better", "improved", "positive", "nice"}
	negativeWords = []string{"bad", "poor", "worse", "difficult", "problem", "issue", "negative", "terrible"}
)

// Score converts feedback text to a 1-10 review score: baseline 5, +1 for
// each positive keyword present, -1 for each negative keyword present,
// clamped to [1, 10].
func Score(feedback string) int {
	feedback = strings.ToLower(feedback)
	score := 5

	for _, w := range positiveWords {
		if strings.Contains(feedback, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(feedback, w) {
			score--
		}
	}

	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
