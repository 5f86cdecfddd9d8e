package httpapi

import (
	"encoding/json"
	"sync"

	"github.com/nmehta/talkiee/internal/session"
)

// jobEvent is one message pushed to websocket subscribers of an async
// audio job.
type jobEvent struct {
	Type   string          `json:"type"` // "progress", "result" or "error"
	Status string          `json:"status,omitempty"`
	Result *session.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// job buffers every published event so subscribers that connect after the
// work started still see the full sequence.
type job struct {
	id string

	mu      sync.Mutex
	backlog [][]byte
	subs    map[chan []byte]struct{}
	done    bool
}

func (j *job) publish(ev jobEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.backlog = append(j.backlog, data)
	for ch := range j.subs {
		select {
		case ch <- data:
		default:
			// Slow subscriber; the message is dropped for this channel.
			// Backlog replay only seeds new subscriptions, it does not
			// redeliver to live ones.
		}
	}
}

// finish closes every subscriber channel. The job stays in the registry
// so late subscribers can replay the backlog.
func (j *job) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.done = true
	for ch := range j.subs {
		close(ch)
	}
	j.subs = nil
}

// subscribe returns a channel that first replays the backlog and then
// receives live events. The channel is closed when the job finishes.
func (j *job) subscribe() chan []byte {
	j.mu.Lock()
	defer j.mu.Unlock()

	ch := make(chan []byte, len(j.backlog)+64)
	for _, data := range j.backlog {
		ch <- data
	}
	if j.done {
		close(ch)
		return ch
	}
	j.subs[ch] = struct{}{}
	return ch
}

func (j *job) unsubscribe(ch chan []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.subs[ch]; ok {
		delete(j.subs, ch)
		close(ch)
	}
}

type jobRegistry struct {
	jobs sync.Map // id -> *job
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{}
}

func (r *jobRegistry) create(id string) *job {
	j := &job{id: id, subs: make(map[chan []byte]struct{})}
	r.jobs.Store(id, j)
	return j
}

func (r *jobRegistry) get(id string) (*job, bool) {
	value, ok := r.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return value.(*job), true
}
