// Package capture records single utterances from the default microphone.
// Recording is a blocking operation bounded by an explicit speech-onset
// timeout and a maximum phrase duration.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/gordonklaus/portaudio"
	wav "github.com/youpy/go-wav"
)

// ErrNoSpeech reports that the onset timeout elapsed without any speech
// being detected.
var ErrNoSpeech = errors.New("no speech detected before timeout")

const (
	defaultSampleRate  = 16000
	defaultOnsetWait   = 5 * time.Second
	defaultMaxPhrase   = 60 * time.Second
	defaultSilenceHold = time.Second
	defaultCalibration = time.Second

	// A frame louder than the calibrated background by this factor counts
	// as speech.
	defaultSpeechRatio = 2.2

	framesPerBuffer = 1024
)

// Config bounds a single recording.
type Config struct {
	SampleRate  int           // capture rate in Hz; 16 kHz default suits recognition backends
	OnsetWait   time.Duration // how long to wait for speech to start
	MaxPhrase   time.Duration // hard cap on utterance length
	SilenceHold time.Duration // trailing silence that ends the utterance
	Calibration time.Duration // ambient-noise sampling window before listening
	SpeechRatio float64       // energy ratio over background that counts as speech
	TempDir     string        // where captured WAVs are written; "" uses the OS default
}

// Microphone records from the default input device.
type Microphone struct {
	cfg    Config
	logger *log.Logger
}

// NewMicrophone creates a recorder, filling zero config fields with
// defaults.
func NewMicrophone(cfg Config, logger *log.Logger) *Microphone {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.OnsetWait <= 0 {
		cfg.OnsetWait = defaultOnsetWait
	}
	if cfg.MaxPhrase <= 0 {
		cfg.MaxPhrase = defaultMaxPhrase
	}
	if cfg.SilenceHold <= 0 {
		cfg.SilenceHold = defaultSilenceHold
	}
	if cfg.Calibration <= 0 {
		cfg.Calibration = defaultCalibration
	}
	if cfg.SpeechRatio <= 0 {
		cfg.SpeechRatio = defaultSpeechRatio
	}
	return &Microphone{cfg: cfg, logger: logger}
}

// Record captures one utterance and writes it to a temporary WAV file,
// returning its path. The caller owns deleting the file. It waits up to
// OnsetWait for speech, then records until SilenceHold of trailing
// silence, MaxPhrase, or context cancellation.
func (m *Microphone) Record(ctx context.Context) (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("initialize audio: %w", err)
	}
	defer portaudio.Terminate()

	frames := make(chan []int16, 64)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), framesPerBuffer, func(in []int16) {
		frame := make([]int16, len(in))
		copy(frame, in)
		select {
		case frames <- frame:
		default: // drop rather than block the audio thread
		}
	})
	if err != nil {
		return "", fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return "", fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	background := m.calibrate(ctx, frames)
	m.logger.Printf("capture: background amplitude %.5f", background)

	captured, err := m.listen(ctx, frames, background)
	if err != nil {
		return "", err
	}

	return m.writeTemp(captured)
}

// calibrate samples ambient noise so speech detection adapts to the room.
func (m *Microphone) calibrate(ctx context.Context, frames <-chan []int16) float64 {
	deadline := time.After(m.cfg.Calibration)
	var total float64
	var n int
	for {
		select {
		case <-ctx.Done():
			return minAmplitude(total, n)
		case <-deadline:
			return minAmplitude(total, n)
		case frame := <-frames:
			total += amplitude(frame)
			n++
		}
	}
}

func minAmplitude(total float64, n int) float64 {
	const floor = 1e-4
	if n == 0 {
		return floor
	}
	avg := total / float64(n)
	return math.Max(avg, floor)
}

func (m *Microphone) listen(ctx context.Context, frames <-chan []int16, background float64) ([]int16, error) {
	onsetDeadline := time.After(m.cfg.OnsetWait)

	var captured []int16
	speaking := false
	var lastSpeech time.Time
	var phraseDeadline <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if speaking {
				return captured, nil
			}
			return nil, ctx.Err()

		case <-onsetDeadline:
			if !speaking {
				return nil, ErrNoSpeech
			}

		case <-phraseDeadline:
			return captured, nil

		case frame := <-frames:
			isSpeech := amplitude(frame)/background > m.cfg.SpeechRatio
			if !speaking {
				if !isSpeech {
					continue
				}
				speaking = true
				lastSpeech = time.Now()
				phraseDeadline = time.After(m.cfg.MaxPhrase)
				m.logger.Printf("capture: speech detected")
			}

			captured = append(captured, frame...)
			if isSpeech {
				lastSpeech = time.Now()
			} else if time.Since(lastSpeech) > m.cfg.SilenceHold {
				return captured, nil
			}
		}
	}
}

func (m *Microphone) writeTemp(samples []int16) (string, error) {
	f, err := os.CreateTemp(m.cfg.TempDir, "talkiee-capture-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}

	w := wav.NewWriter(f, uint32(len(samples)), 1, uint32(m.cfg.SampleRate), 16)
	out := make([]wav.Sample, len(samples))
	for i, v := range samples {
		out[i] = wav.Sample{Values: [2]int{int(v), 0}}
	}
	if err := w.WriteSamples(out); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp wav: %w", err)
	}
	return f.Name(), nil
}

// amplitude is the mean absolute sample value normalized to [0, 1].
func amplitude(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var total float64
	for _, v := range frame {
		total += math.Abs(float64(v))
	}
	return total / float64(len(frame)) / 32768
}
