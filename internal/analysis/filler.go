package analysis

import (
	"regexp"
	"strings"
	"sync"
)

// fillerPattern matches the fixed discourse-filler vocabulary on word
// boundaries so substrings inside other words ("likely", "wellness") are
// not counted.
var fillerPattern = regexp.MustCompile(`(?i)\b(um|uh|like|you know|so|well|actually|basically|literally|right|okay)\b`)

// FillerReport lists every filler occurrence found in a piece of text,
// in order of appearance.
type FillerReport struct {
	Occurrences []string `json:"occurrences"`
	Count       int      `json:"count"`
}

// FillerDetector scans text for filler words. Detection is a pure function
// of the input, so results are cached; the cache is bounded and evicts the
// oldest entry once full.
type FillerDetector struct {
	mu    sync.Mutex
	cache map[string]FillerReport
	order []string
	limit int
}

// NewFillerDetector returns a detector with a cache of up to limit distinct
// inputs. A limit <= 0 disables caching.
func NewFillerDetector(limit int) *FillerDetector {
	return &FillerDetector{
		cache: make(map[string]FillerReport),
		limit: limit,
	}
}

// Detect returns the filler words found in text.
func (d *FillerDetector) Detect(text string) FillerReport {
	key := strings.ToLower(strings.TrimSpace(text))

	if d.limit > 0 {
		d.mu.Lock()
		if report, ok := d.cache[key]; ok {
			d.mu.Unlock()
			return report
		}
		d.mu.Unlock()
	}

	matches := fillerPattern.FindAllString(text, -1)
	report := FillerReport{Occurrences: matches, Count: len(matches)}

	if d.limit > 0 {
		d.mu.Lock()
		if _, ok := d.cache[key]; !ok {
			if len(d.order) >= d.limit {
				oldest := d.order[0]
				d.order = d.order[1:]
				delete(d.cache, oldest)
			}
			d.cache[key] = report
			d.order = append(d.order, key)
		}
		d.mu.Unlock()
	}

	return report
}
