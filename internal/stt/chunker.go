package stt

import (
	"bytes"
	"fmt"
	"io"
	"os"

	wav "github.com/youpy/go-wav"
)

// splitWAV reads the WAV file at path and re-encodes it as sequential,
// non-overlapping fixed-duration WAV segments (the final segment may be
// shorter). chunkSeconds <= 0 yields a single segment covering the whole
// file.
func splitWAV(path string, chunkSeconds int) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("decode wav header: %w", err)
	}

	var samples []wav.Sample
	for {
		batch, err := r.ReadSamples(4096)
		samples = append(samples, batch...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode wav samples: %w", err)
		}
	}

	chunkLen := chunkSeconds * int(format.SampleRate)
	if chunkSeconds <= 0 || chunkLen >= len(samples) || chunkLen == 0 {
		seg, err := encodeWAV(samples, format)
		if err != nil {
			return nil, err
		}
		return [][]byte{seg}, nil
	}

	var segments [][]byte
	for start := 0; start < len(samples); start += chunkLen {
		end := start + chunkLen
		if end > len(samples) {
			end = len(samples)
		}
		seg, err := encodeWAV(samples[start:end], format)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func encodeWAV(samples []wav.Sample, format *wav.WavFormat) ([]byte, error) {
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(samples)), format.NumChannels, format.SampleRate, format.BitsPerSample)
	if err := w.WriteSamples(samples); err != nil {
		return nil, fmt.Errorf("encode wav segment: %w", err)
	}
	return buf.Bytes(), nil
}
