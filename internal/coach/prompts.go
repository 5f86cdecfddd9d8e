package coach

import (
	"fmt"
	"strings"

	"github.com/nmehta/talkiee/internal/analysis"
)

// Each feedback mode asks the same external capability (text generation)
// with a different evaluation rubric and a different required context
// window. These builders are the single place mapping interaction kind to
// structured ask.

func metricsBlock(m analysis.Metrics, fillers analysis.FillerReport) string {
	return fmt.Sprintf(
		"- **Pitch:** %.2f Hz (indicates tone quality)\n"+
			"- **Pace:** %.2f words/sec (indicates speaking speed)\n"+
			"- **Filler words:** %s (Total: %d)",
		m.AveragePitchHz, m.PaceWordsPerSec,
		strings.Join(fillers.Occurrences, ", "), fillers.Count)
}

func textPrompt(text string, history *History) string {
	return fmt.Sprintf(
		"You are a professional communication improvement coach. Your role is to assist users "+
			"in enhancing their verbal and written communication skills. Provide feedback on tone, "+
			"clarity, grammar, and delivery.\n\n"+
			"Conversation History:\n%s\n"+
			"User: %s\nAssistant:",
		history.Transcript(), text)
}

func voicePrompt(text string, m analysis.Metrics, fillers analysis.FillerReport) string {
	return fmt.Sprintf(
		"You are a professional communication coach tasked with providing insightful feedback on "+
			"vocal delivery. Analyze the following metrics:\n%s\n\n"+
			"Transcribed Text: %s\n\n"+
			"Provide structured feedback:\n"+
			"1. **Positive Aspects**: Highlight what's working well.\n"+
			"2. **Areas for Improvement**: Identify specific aspects that could be enhanced.\n"+
			"3. **Actionable Suggestions**: Offer practical tips to improve.\n"+
			"Keep the tone encouraging, professional, and concise.",
		metricsBlock(m, fillers), text)
}

func interviewPrompt(text string, m analysis.Metrics, fillers analysis.FillerReport, history *History) string {
	return fmt.Sprintf(
		"You are a seasoned HR interview expert providing detailed feedback on a candidate's "+
			"performance. Analyze the following metrics:\n%s\n\n"+
			"Conversation History:\n%s\n"+
			"**Candidate's Answer:**\n%s\n\n"+
			"Provide structured feedback:\n"+
			"1. **Strengths:** Highlight the candidate's strong points (clarity, confidence, articulation).\n"+
			"2. **Improvement Areas:** Identify specific areas where the candidate can improve (conciseness, clarity, tone).\n"+
			"3. **Communication Tips:** Offer actionable suggestions for better responses.\n"+
			"4. **Overall Impression:** Give an overall rating or impression on their interview readiness.\n"+
			"Keep the tone professional, supportive, and clear.",
		metricsBlock(m, fillers), history.Transcript(), text)
}

func storytellingPrompt(text string, m analysis.Metrics, fillers analysis.FillerReport, history *History) string {
	return fmt.Sprintf(
		"You are a masterful storyteller and literary critic. Your task is to evaluate the user's "+
			"narrated story with a focus on **imagination, picturization, emotional impact, narrative "+
			"flow, and vocabulary**. Consider the following audio metrics:\n%s\n\n"+
			"Conversation History:\n%s\n"+
			"**User's Story:**\n%s\n\n"+
			"Provide detailed feedback by evaluating:\n"+
			"1. **Picturization & Imagination:** How vividly does the story paint a picture? Does it evoke visual, sensory, or emotional imagery effectively?\n"+
			"2. **Narrative Flow & Structure:** Assess coherence and progression. Does the story have a clear beginning, middle, and end? Comment on the pacing.\n"+
			"3. **Emotional Impact:** Analyze the emotional depth. Are the characters relatable and their emotions believable?\n"+
			"4. **Language & Vocabulary:** Critique the richness and creativity of the vocabulary. Is the language expressive and engaging?\n"+
			"5. **Delivery & Expression:** Comment on the voice delivery based on the pitch, pace, and filler words.\n"+
			"6. **Overall Evaluation:** Summarize strengths and areas for improvement with specific tips to enhance storytelling skills.\n"+
			"Keep the tone descriptive, engaging, and constructive.",
		metricsBlock(m, fillers), history.Transcript(), text)
}

func presentationPrompt(text string, m analysis.Metrics, fillers analysis.FillerReport) string {
	return fmt.Sprintf(
		"You are a professional communication and presentation coach. Your task is to evaluate the "+
			"user's spoken presentation in terms of **clarity, structure, delivery, and professionalism**.\n\n"+
			"**Audio Metrics:**\n%s\n\n"+
			"**User's Presentation Content:**\n%s\n\n"+
			"Provide detailed feedback by evaluating:\n"+
			"1. **Clarity & Structure:** Is the presentation clear, with ideas structured logically into introduction, body, and conclusion?\n"+
			"2. **Content Relevance & Depth:** Does the content cover the topic effectively without unnecessary tangents?\n"+
			"3. **Delivery & Tone:** Is the tone confident, professional, and engaging? Note pauses, hesitations, and filler words.\n"+
			"4. **Pace & Timing:** Is the speaking pace too fast, too slow, or appropriate?\n"+
			"5. **Language & Vocabulary:** Are the vocabulary and terminology suitable for the audience?\n"+
			"6. **Overall Evaluation:** Summarize strengths and areas for improvement with practical suggestions.",
		metricsBlock(m, fillers), text)
}

func interviewQuestionPrompt(topic string) string {
	return fmt.Sprintf(
		"You are an HR interview coach. Generate a realistic and unique %s HR interview question. "+
			"Ensure the question is clear, concise, and avoids technical or domain-specific content. "+
			"Each time, the question should be distinct and creative.", topic)
}

const passagePrompt = "Generate three unique and insightful sentences about various professional skills such as " +
	"communication, leadership, time management, adaptability, collaboration, or problem-solving. " +
	"Ensure each sentence highlights a different skill and its impact in a workplace or personal growth context. " +
	"Keep the sentences clear, concise, and meaningful."

func summaryPrompt(passage, userSummary string) string {
	return fmt.Sprintf(
		"Provide detailed feedback on the following summary in terms of accuracy, coherence, and conciseness. "+
			"Original Passage: %s\n"+
			"User Summary: %s\n"+
			"Highlight strengths and areas for improvement. Be detailed and constructive.",
		passage, userSummary)
}
