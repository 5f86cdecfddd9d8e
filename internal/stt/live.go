package stt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nmehta/talkiee/internal/capture"
)

// Recorder captures one utterance from the microphone and returns the
// path of a temporary WAV file holding it. The caller owns deletion of
// that file.
type Recorder interface {
	Record(ctx context.Context) (string, error)
}

// Live sentinel strings. Live never raises: every failure mode returns a
// human-readable message with an empty audio path so the caller can render
// it and continue.
const (
	MsgNoSpeechTimeout = "Timeout: No speech detected"
	MsgUnintelligible  = "Could not understand audio"
)

// Live records a single utterance and transcribes it. On success it
// returns the transcript and the path of the captured WAV for downstream
// acoustic analysis; the caller owns deleting that file. On failure the
// returned text is a sentinel message and the path is empty, with any
// temporary capture already cleaned up.
func Live(ctx context.Context, rec Recorder, client Client, language string) (text string, audioPath string) {
	path, err := rec.Record(ctx)
	if err != nil {
		if errors.Is(err, capture.ErrNoSpeech) {
			return MsgNoSpeechTimeout, ""
		}
		return fmt.Sprintf("Speech recognition service error: %v", err), ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		os.Remove(path)
		return fmt.Sprintf("Speech recognition service error: %v", err), ""
	}

	transcript, err := client.Recognize(ctx, data, language)
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrNoSpeech) {
			return MsgUnintelligible, ""
		}
		return fmt.Sprintf("Speech recognition service error: %v", err), ""
	}

	return transcript, path
}
