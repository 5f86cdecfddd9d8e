package analysis

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	wav "github.com/youpy/go-wav"
)

// Metrics are the acoustic features derived from one recording. All
// fields are >= 0; zero is the defined fallback when no voiced frames or
// no audio duration exist. DurationSeconds always covers the whole
// recording, even when pitch and pace were averaged over chunks.
type Metrics struct {
	AveragePitchHz  float64 `json:"average_pitch_hz"`
	PaceWordsPerSec float64 `json:"pace_words_per_sec"`
	DurationSeconds float64 `json:"duration_seconds"`
}

const (
	pitchFrameSize = 2048
	pitchHopSize   = 512

	// Plausible fundamental-frequency range for speech.
	minPitchHz = 50
	maxPitchHz = 400

	// Frames quieter than this RMS carry no usable pitch.
	voicedRMSFloor = 0.01

	// Minimum normalized autocorrelation peak for a frame to count as voiced.
	voicedCorrFloor = 0.30

	// Frames this far (dB) below the loudest frame are treated as silence
	// when segmenting voice activity.
	silenceTopDB = 60.0

	paceFrameSize = 2048
	paceHopSize   = 512
)

// AnalyzeFile decodes the WAV file at path and computes its metrics.
// chunkSeconds > 0 partitions the recording into fixed-duration chunks that
// are analyzed independently and averaged; 0 analyzes the whole clip at
// once. Chunking bounds memory for long uploads; whole-clip is the right
// choice for short live captures.
func AnalyzeFile(path string, chunkSeconds int) (Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return Analyze(f, chunkSeconds)
}

// Analyze decodes a WAV stream and computes its metrics. See AnalyzeFile.
func Analyze(r io.Reader, chunkSeconds int) (Metrics, error) {
	samples, sampleRate, err := decodeWAV(r)
	if err != nil {
		return Metrics{}, err
	}

	total := float64(len(samples)) / float64(sampleRate)
	if chunkSeconds <= 0 || len(samples) == 0 {
		m := analyzeSamples(samples, sampleRate)
		m.DurationSeconds = total
		return m, nil
	}

	chunkLen := chunkSeconds * sampleRate
	var sum Metrics
	var n int
	for start := 0; start < len(samples); start += chunkLen {
		end := start + chunkLen
		if end > len(samples) {
			end = len(samples)
		}
		m := analyzeSamples(samples[start:end], sampleRate)
		sum.AveragePitchHz += m.AveragePitchHz
		sum.PaceWordsPerSec += m.PaceWordsPerSec
		n++
	}
	return Metrics{
		AveragePitchHz:  sum.AveragePitchHz / float64(n),
		PaceWordsPerSec: sum.PaceWordsPerSec / float64(n),
		DurationSeconds: total,
	}, nil
}

// decodeWAV reads every sample, downmixed to mono in [-1, 1], at the
// file's native sample rate.
func decodeWAV(r io.Reader) ([]float64, int, error) {
	// wav.NewReader needs io.ReaderAt, so buffer the stream.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	wr := wav.NewReader(bytes.NewReader(data))
	format, err := wr.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav header: %w", err)
	}
	if format.SampleRate == 0 {
		return nil, 0, fmt.Errorf("decode wav header: zero sample rate")
	}

	channels := int(format.NumChannels)
	var samples []float64
	for {
		batch, err := wr.ReadSamples(4096)
		for _, s := range batch {
			v := wr.FloatValue(s, 0)
			if channels > 1 {
				v = (v + wr.FloatValue(s, 1)) / 2
			}
			samples = append(samples, v)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("decode wav samples: %w", err)
		}
	}
	return samples, int(format.SampleRate), nil
}

func analyzeSamples(samples []float64, sampleRate int) Metrics {
	duration := float64(len(samples)) / float64(sampleRate)
	if duration == 0 {
		return Metrics{}
	}

	var m Metrics

	var pitchSum float64
	var voiced int
	for start := 0; start+pitchFrameSize <= len(samples); start += pitchHopSize {
		if p := framePitch(samples[start:start+pitchFrameSize], sampleRate); p > 0 {
			pitchSum += p
			voiced++
		}
	}
	if voiced > 0 {
		m.AveragePitchHz = pitchSum / float64(voiced)
	}

	m.PaceWordsPerSec = float64(activeSegments(samples)) / duration
	return m
}

// framePitch estimates the fundamental frequency of one frame by
// normalized autocorrelation, returning 0 for unvoiced frames.
func framePitch(frame []float64, sampleRate int) float64 {
	var energy float64
	for _, v := range frame {
		energy += v * v
	}
	if math.Sqrt(energy/float64(len(frame))) < voicedRMSFloor {
		return 0
	}

	minLag := sampleRate / maxPitchHz
	maxLag := sampleRate / minPitchHz
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr < voicedCorrFloor {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}

// activeSegments counts contiguous voice-active regions, a proxy for the
// number of spoken words. A frame is active when its RMS is within
// silenceTopDB of the loudest frame in the clip.
func activeSegments(samples []float64) int {
	var frames []float64
	for start := 0; start < len(samples); start += paceHopSize {
		end := start + paceFrameSize
		if end > len(samples) {
			end = len(samples)
		}
		var energy float64
		for _, v := range samples[start:end] {
			energy += v * v
		}
		frames = append(frames, math.Sqrt(energy/float64(end-start)))
	}

	var ref float64
	for _, rms := range frames {
		if rms > ref {
			ref = rms
		}
	}
	if ref == 0 {
		return 0
	}
	threshold := ref * math.Pow(10, -silenceTopDB/20)

	segments := 0
	active := false
	for _, rms := range frames {
		if rms > threshold {
			if !active {
				segments++
			}
			active = true
		} else {
			active = false
		}
	}
	return segments
}
