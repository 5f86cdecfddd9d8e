// Command coach runs a coaching exchange from the terminal: typed text,
// a recorded WAV file, a document, or a live microphone capture.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nmehta/talkiee/internal/app"
	"github.com/nmehta/talkiee/internal/capture"
	"github.com/nmehta/talkiee/internal/history"
	"github.com/nmehta/talkiee/internal/session"
)

func main() {
	var (
		mode     = flag.String("mode", "text", "coaching mode: text, voice, interview, storytelling, presentation")
		text     = flag.String("text", "", "typed input to review")
		audio    = flag.String("audio", "", "path of a WAV recording to review")
		document = flag.String("document", "", "path of a PDF or DOCX file to review")
		live     = flag.Bool("live", false, "capture one utterance from the microphone")
		speak    = flag.Bool("speak", false, "synthesize the feedback to an audio file")
		progress = flag.Bool("progress", false, "print the progress summary and exit")
		question = flag.Bool("question", false, "print a practice interview question and exit")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := app.LoadConfigFromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatalf("init app: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *progress {
		printProgress(a)
		return
	}

	sess := session.New(session.Config{
		Coach:        a.Coach(),
		STT:          a.STT(),
		TTS:          a.TTS(),
		Store:        a.Store(),
		Events:       a.Events(),
		Logger:       logger,
		ChunkSeconds: cfg.ChunkSeconds,
		Language:     cfg.Language,
		Speak:        *speak,
	})
	sess.SetMode(session.ParseMode(*mode))
	defer sess.End()

	if *question {
		fmt.Println(sess.InterviewQuestion(ctx))
		return
	}

	var res session.Result
	switch {
	case *text != "":
		res = sess.HandleText(ctx, *text)

	case *audio != "":
		if a.STT() == nil {
			logger.Fatal("audio input needs STT_BASE_URL")
		}
		res, err = sess.HandleAudioFile(ctx, *audio, func(status string) {
			fmt.Fprintln(os.Stderr, status)
		})
		if err != nil {
			logger.Fatalf("process %s: %v", *audio, err)
		}

	case *document != "":
		f, err := os.Open(*document)
		if err != nil {
			logger.Fatalf("open %s: %v", *document, err)
		}
		res, err = sess.HandleDocument(ctx, f, filepath.Ext(*document))
		f.Close()
		if err != nil {
			logger.Fatalf("process %s: %v", *document, err)
		}

	case *live:
		if a.STT() == nil {
			logger.Fatal("live capture needs STT_BASE_URL")
		}
		mic := capture.NewMicrophone(capture.Config{}, logger)
		fmt.Fprintln(os.Stderr, "Listening... speak now.")
		res = sess.HandleLive(ctx, mic)

	default:
		flag.Usage()
		os.Exit(2)
	}

	printResult(res)
}

func printResult(res session.Result) {
	fmt.Printf("Transcript: %s\n", res.Transcript)
	if res.Metrics.AveragePitchHz > 0 || res.Metrics.PaceWordsPerSec > 0 {
		fmt.Printf("Pitch:      %.2f Hz\n", res.Metrics.AveragePitchHz)
		fmt.Printf("Pace:       %.2f words/sec\n", res.Metrics.PaceWordsPerSec)
	}
	if res.Fillers.Count > 0 {
		fmt.Printf("Fillers:    %s (total %d)\n",
			strings.Join(res.Fillers.Occurrences, ", "), res.Fillers.Count)
	}
	if res.Feedback != "" {
		fmt.Printf("\n%s\n", res.Feedback)
		fmt.Printf("\nReview score: %d/10\n", res.ReviewScore)
	}
	if res.AudioPath != "" {
		fmt.Printf("Spoken feedback: %s\n", res.AudioPath)
	}
}

func printProgress(a *app.App) {
	entries, err := a.Store().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load history: %v\n", err)
		os.Exit(1)
	}
	p := history.Summarize(entries)
	if p.Latest == nil {
		fmt.Println("No sessions recorded yet.")
		return
	}
	fmt.Printf("Sessions:            %d\n", len(entries))
	fmt.Printf("Average score:       %.1f/10\n", p.AverageReviewScore)
	fmt.Printf("Score improvement:   %+.1f\n", p.ScoreImprovement)
	fmt.Printf("Pitch improvement:   %+.1f Hz\n", p.PitchImprovement)
	fmt.Printf("Pace improvement:    %+.2f words/sec\n", p.PaceImprovement)
	fmt.Printf("Last session:        %s\n", p.Latest.Timestamp.Format("2006-01-02 15:04"))
}
