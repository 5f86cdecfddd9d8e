// Package watch feeds recordings dropped into a directory through the
// coaching pipeline. A worker pool drains a bounded queue so a burst of
// files cannot fan out into unbounded goroutines.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/nmehta/talkiee/internal/eventlog"
	"github.com/nmehta/talkiee/internal/session"
)

// settleDelay gives writers that copy into the directory rather than
// renaming a moment to finish before the file is read.
const settleDelay = 200 * time.Millisecond

type Config struct {
	Dir       string
	Workers   int // defaults to 2
	QueueSize int // defaults to 100
}

type job struct {
	ID     string
	Path   string
	Queued time.Time
}

// Watcher owns the fsnotify subscription, the queue, and the workers.
type Watcher struct {
	cfg        Config
	newSession func() *session.Session
	events     *eventlog.Logger
	logger     *log.Logger

	watcher *fsnotify.Watcher
	queue   chan job
	workers sync.WaitGroup
}

// New creates a watcher over cfg.Dir. newSession builds a fresh pipeline
// session per worker; sessions are not safe for concurrent use.
func New(cfg Config, newSession func() *session.Session, events *eventlog.Logger, logger *log.Logger) (*Watcher, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if events == nil {
		events = eventlog.New(nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		cfg:        cfg,
		newSession: newSession,
		events:     events,
		logger:     logger,
		watcher:    fsw,
		queue:      make(chan job, cfg.QueueSize),
	}, nil
}

// Start begins watching and blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create drop directory: %w", err)
	}
	if err := w.watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch drop directory: %w", err)
	}
	w.logger.Printf("watch: watching %s with %d workers", w.cfg.Dir, w.cfg.Workers)

	for i := 0; i < w.cfg.Workers; i++ {
		w.workers.Add(1)
		go w.worker(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch: watcher error: %v", err)
		}
	}
}

// Stop closes the queue and waits for in-flight work, bounded by ctx.
func (w *Watcher) Stop(ctx context.Context) error {
	_ = w.watcher.Close()
	close(w.queue)

	done := make(chan struct{})
	go func() {
		w.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out")
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) {
		return
	}
	if !wantsFile(event.Name) {
		return
	}

	j := job{ID: uuid.NewString(), Path: event.Name, Queued: time.Now()}
	select {
	case w.queue <- j:
		w.logger.Printf("watch: queued %s", filepath.Base(event.Name))
		w.events.LogAsync(j.ID, eventlog.EventWatchFilePicked, map[string]any{
			"file": filepath.Base(event.Name),
		})
	default:
		w.logger.Printf("watch: queue full, dropping %s", filepath.Base(event.Name))
	}
}

// wantsFile filters events down to finished WAV recordings.
func wantsFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".wav")
}

func (w *Watcher) worker(ctx context.Context) {
	defer w.workers.Done()

	// Dropped files are speech recordings, so the worker reviews them in
	// voice mode and the computed acoustic metrics reach the prompt.
	sess := w.newSession()
	sess.SetMode(session.ModeVoice)
	defer sess.End()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-w.queue:
			if !ok {
				return
			}
			w.process(ctx, sess, j)
		}
	}
}

func (w *Watcher) process(ctx context.Context, sess *session.Session, j job) {
	time.Sleep(settleDelay)

	res, err := sess.HandleAudioFile(ctx, j.Path, nil)
	if err != nil {
		w.logger.Printf("watch: failed to process %s: %v", filepath.Base(j.Path), err)
		return
	}
	w.logger.Printf("watch: processed %s in %s (score %d)",
		filepath.Base(j.Path), time.Since(j.Queued).Round(time.Millisecond), res.ReviewScore)
}
