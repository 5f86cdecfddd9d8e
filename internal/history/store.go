// Package history persists scored interaction records and computes
// rolling progress metrics from them.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nmehta/talkiee/internal/analysis"
)

// Entry is one completed interaction. Entries are created once, appended
// to the log, and never mutated or deleted afterward.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	UserInput   string    `json:"user_input"`
	SpokenText  string    `json:"spoken_text"`
	Feedback    string    `json:"feedback"`
	Pitch       float64   `json:"pitch"`
	Pace        float64   `json:"pace"`
	ReviewScore int       `json:"review_score"`
}

// Store is an append-only JSON log with a single-writer assumption.
// Each append reads the whole log, appends, and rewrites it as a unit;
// concurrent appends from multiple processes are out of scope.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store persisting to the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Record derives the review score from the feedback text and appends a
// new entry stamped with the current time.
func (s *Store) Record(userInput, spokenText, feedback string, m analysis.Metrics) error {
	return s.Append(Entry{
		Timestamp:   time.Now(),
		UserInput:   userInput,
		SpokenText:  spokenText,
		Feedback:    feedback,
		Pitch:       m.AveragePitchHz,
		Pace:        m.PaceWordsPerSec,
		ReviewScore: Score(feedback),
	})
}

// Append adds an entry to the log.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append(entries, e)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load returns every entry in the log, oldest first. A missing file is an
// empty log.
func (s *Store) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}
