package analysis

import (
	"bytes"
	"math"
	"strings"
	"testing"

	wav "github.com/youpy/go-wav"
)

const testSampleRate = 16000

// wavFromSamples encodes mono float samples in [-1, 1] as a 16-bit WAV.
func wavFromSamples(t *testing.T, samples []float64, sampleRate uint32) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(samples)), 1, sampleRate, 16)

	out := make([]wav.Sample, len(samples))
	for i, v := range samples {
		out[i] = wav.Sample{Values: [2]int{int(v * 32767), 0}}
	}
	if err := w.WriteSamples(out); err != nil {
		t.Fatalf("encode test wav: %v", err)
	}
	return buf.Bytes()
}

func sine(freq float64, amplitude float64, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestAnalyzePitchOfSine(t *testing.T) {
	data := wavFromSamples(t, sine(220, 0.5, 1.0, testSampleRate), testSampleRate)

	m, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if math.Abs(m.AveragePitchHz-220) > 10 {
		t.Errorf("AveragePitchHz = %.2f, want ~220", m.AveragePitchHz)
	}
	if m.PaceWordsPerSec <= 0 {
		t.Errorf("PaceWordsPerSec = %.2f, want > 0 for a continuous tone", m.PaceWordsPerSec)
	}
}

func TestAnalyzeSilenceHasZeroPitch(t *testing.T) {
	data := wavFromSamples(t, make([]float64, testSampleRate), testSampleRate)

	m, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if m.AveragePitchHz != 0 {
		t.Errorf("AveragePitchHz = %.2f, want 0 for silence", m.AveragePitchHz)
	}
	if m.PaceWordsPerSec != 0 {
		t.Errorf("PaceWordsPerSec = %.2f, want 0 for silence", m.PaceWordsPerSec)
	}
}

func TestAnalyzeZeroDuration(t *testing.T) {
	data := wavFromSamples(t, nil, testSampleRate)

	m, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if m.AveragePitchHz != 0 || m.PaceWordsPerSec != 0 {
		t.Errorf("metrics = %+v, want zero values for empty audio", m)
	}
}

func TestAnalyzeChunkedMatchesUnchunkedForShortClip(t *testing.T) {
	// A clip shorter than one chunk must produce identical metrics on both
	// paths.
	samples := sine(180, 0.4, 2.0, testSampleRate)
	data := wavFromSamples(t, samples, testSampleRate)

	whole, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze unchunked: %v", err)
	}
	chunked, err := Analyze(bytes.NewReader(data), 30)
	if err != nil {
		t.Fatalf("Analyze chunked: %v", err)
	}

	if whole != chunked {
		t.Errorf("chunked = %+v, unchunked = %+v, want identical", chunked, whole)
	}
}

func TestAnalyzeChunkedAveragesAcrossChunks(t *testing.T) {
	// Two one-second chunks: a 220 Hz tone then digital silence. The
	// averaged pitch must sit halfway between the per-chunk values.
	samples := append(sine(220, 0.5, 1.0, testSampleRate), make([]float64, testSampleRate)...)
	data := wavFromSamples(t, samples, testSampleRate)

	m, err := Analyze(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if math.Abs(m.AveragePitchHz-110) > 10 {
		t.Errorf("AveragePitchHz = %.2f, want ~110 (mean of ~220 and 0)", m.AveragePitchHz)
	}
}

func TestAnalyzeReportsDuration(t *testing.T) {
	data := wavFromSamples(t, sine(220, 0.5, 2.5, testSampleRate), testSampleRate)

	whole, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(whole.DurationSeconds-2.5) > 0.01 {
		t.Errorf("DurationSeconds = %.3f, want 2.5", whole.DurationSeconds)
	}

	// Chunking averages pitch and pace but the duration stays the whole
	// recording's.
	chunked, err := Analyze(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("Analyze chunked: %v", err)
	}
	if math.Abs(chunked.DurationSeconds-2.5) > 0.01 {
		t.Errorf("chunked DurationSeconds = %.3f, want 2.5", chunked.DurationSeconds)
	}
}

func TestAnalyzeCorruptAudio(t *testing.T) {
	_, err := Analyze(strings.NewReader("not a wav file"), 0)
	if err == nil {
		t.Fatal("Analyze should fail on undecodable input")
	}
}

func TestAnalyzePaceCountsSegments(t *testing.T) {
	// Three tone bursts separated by silence: three active segments over
	// three seconds of audio.
	var samples []float64
	for i := 0; i < 3; i++ {
		samples = append(samples, sine(200, 0.5, 0.5, testSampleRate)...)
		samples = append(samples, make([]float64, testSampleRate/2)...)
	}
	data := wavFromSamples(t, samples, testSampleRate)

	m, err := Analyze(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	want := 3.0 / 3.0
	if math.Abs(m.PaceWordsPerSec-want) > 0.01 {
		t.Errorf("PaceWordsPerSec = %.3f, want %.3f", m.PaceWordsPerSec, want)
	}
}
