package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Segment sentinels inserted in place of a failed chunk. A failed chunk
// never aborts the transcription; the caller always receives the full
// concatenated transcript.
const (
	unclearMarker = "[Unclear Audio]"
)

// TranscribeFile splits the WAV file at path into fixed-duration segments
// and transcribes each independently. Segments the backend cannot make out
// are replaced with "[Unclear Audio]"; segments that fail with a service
// error are replaced with "[Error: <detail>]". The progress callback, when
// non-nil, is invoked after each segment with status text; segment, when
// non-nil, is invoked with each segment's outcome.
//
// An error is returned only when the file itself cannot be read or
// decoded; that failure is deterministic and is not retried.
func TranscribeFile(ctx context.Context, client Client, path string, chunkSeconds int, language string, progress ProgressFunc, segment SegmentFunc) (string, error) {
	segments, err := splitWAV(path, chunkSeconds)
	if err != nil {
		return "", err
	}

	report := func(status string) {
		if progress != nil {
			progress(status)
		}
	}
	outcome := func(i int, err error) {
		if segment != nil {
			segment(i, len(segments), err)
		}
	}

	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		report(fmt.Sprintf("Transcribing segment %d of %d...", i+1, len(segments)))

		text, err := client.Recognize(ctx, seg, language)
		outcome(i+1, err)
		switch {
		case err == nil:
			parts = append(parts, text)
		case errors.Is(err, ErrNoSpeech):
			parts = append(parts, unclearMarker)
		default:
			parts = append(parts, fmt.Sprintf("[Error: %v]", err))
		}
	}

	report("Transcription complete.")
	return strings.Join(parts, " "), nil
}
