package sink

import (
	"container/list"
	"sync"

	"btwatch/pkg/models"
)

const maxRecentEvents = 100

// Recorder keeps the most recent presence events in memory for the status
// server. Observations are not recorded.
type Recorder struct {
	events *list.List
	mu     sync.RWMutex
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: list.New()}
}

// Write records the event, evicting the oldest once the buffer is full.
func (r *Recorder) Write(e models.Event) error {
	if e.Kind == models.EventObservation {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.events.Len() >= maxRecentEvents {
		r.events.Remove(r.events.Front())
	}
	r.events.PushBack(e)

	return nil
}

// Events returns the recorded events, oldest first.
func (r *Recorder) Events() []models.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Event
	for e := r.events.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(models.Event))
	}
	return out
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }
