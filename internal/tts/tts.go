// Package tts turns feedback text into playable audio.
package tts

import (
	"context"
	"fmt"
	"os"
)

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts text to speech and returns encoded audio data.
	// The format is determined by the provider configuration.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SynthesizeToFile synthesizes text and writes the audio to a temporary
// file. The caller owns the returned path and is responsible for
// deleting it after playback.
func SynthesizeToFile(ctx context.Context, c Client, text string) (string, error) {
	data, err := c.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "talkiee-tts-*.mp3")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return f.Name(), nil
}
