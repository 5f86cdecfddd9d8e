package history

// Progress is derived from the full log on every read; nothing is cached.
type Progress struct {
	AverageReviewScore float64 `json:"average_review_score"`
	ScoreImprovement   float64 `json:"score_improvement"`
	PitchImprovement   float64 `json:"pitch_improvement"`
	PaceImprovement    float64 `json:"pace_improvement"`
	Latest             *Entry  `json:"latest,omitempty"`
}

// Summarize computes rolling progress metrics. The average covers every
// entry (0 for an empty log); the improvement deltas compare the final
// two entries and are 0 when fewer than two exist.
func Summarize(entries []Entry) Progress {
	var p Progress
	if len(entries) == 0 {
		return p
	}

	var total int
	for _, e := range entries {
		total += e.ReviewScore
	}
	p.AverageReviewScore = float64(total) / float64(len(entries))

	latest := entries[len(entries)-1]
	p.Latest = &latest

	if len(entries) > 1 {
		previous := entries[len(entries)-2]
		p.ScoreImprovement = float64(latest.ReviewScore - previous.ReviewScore)
		p.PitchImprovement = latest.Pitch - previous.Pitch
		p.PaceImprovement = latest.Pace - previous.Pace
	}
	return p
}
