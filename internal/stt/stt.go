// Package stt wraps an external speech-recognition backend and provides
// the two transcription entry points of the pipeline: chunked file
// transcription with partial-failure tolerance, and live microphone
// capture.
package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech reports that the backend could not make out any speech in
// the audio it was given. Any other error from a Client is a service
// failure (unreachable, rejected request, malformed response).
var ErrNoSpeech = errors.New("no speech could be recognized")

// Client defines the interface for speech-recognition backends. The audio
// is a complete WAV buffer; language is an optional hint such as "en-US".
type Client interface {
	Recognize(ctx context.Context, wavData []byte, language string) (string, error)
}

// ProgressFunc receives human-readable status text as a multi-segment
// transcription advances.
type ProgressFunc func(status string)

// SegmentFunc observes the outcome of each transcribed segment. index is
// 1-based. err is nil on success, ErrNoSpeech when the backend made
// nothing out of the segment, or the service error otherwise.
type SegmentFunc func(index, total int, err error)
