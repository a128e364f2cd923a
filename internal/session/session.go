// Package session tracks recent workspace events — file opens, edits,
// searches — in a bounded append-only ring that feeds the search boost.
// The tracker is an explicit value passed into the search entry point; there
// is no process-wide singleton.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flytohub/flyto-indexer/internal/store"
)

// EventKind classifies a session event.
type EventKind string

const (
	EventOpenedFile EventKind = "opened_file"
	EventEditedFile EventKind = "edited_file"
	EventSearched   EventKind = "searched"
)

// Event is one recorded session event. Seq is monotonic within a tracker's
// lifetime.
type Event struct {
	Seq   uint64    `json:"seq"`
	Kind  EventKind `json:"kind"`
	Value string    `json:"value"` // file path or query text
	At    time.Time `json:"at"`
}

// DefaultCapacity bounds the ring when the config does not override it.
const DefaultCapacity = 128

// Tracker is a bounded FIFO of session events. Appends never fail and never
// invalidate concurrent readers, so a cancelled query cannot corrupt the
// buffer.
type Tracker struct {
	mu        sync.Mutex
	id        string
	capacity  int
	events    []Event
	seq       uint64
	dirty     bool
	lastFlush time.Time
	interval  time.Duration
}

// NewTracker creates a tracker with the given ring capacity; capacity <= 0
// selects the default. flushInterval bounds how often Flush actually writes.
func NewTracker(capacity int, flushInterval time.Duration) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Tracker{
		id:       uuid.NewString(),
		capacity: capacity,
		interval: flushInterval,
	}
}

// ID is the tracker's session identity, minted at creation.
func (t *Tracker) ID() string {
	return t.id
}

// Record appends one event, evicting the oldest when the ring is full.
func (t *Tracker) Record(kind EventKind, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.events = append(t.events, Event{
		Seq:   t.seq,
		Kind:  kind,
		Value: value,
		At:    time.Now().UTC(),
	})
	if len(t.events) > t.capacity {
		t.events = t.events[len(t.events)-t.capacity:]
	}
	t.dirty = true
}

// Events returns a copy of the buffered events, oldest first.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// BoostWeights maps file paths in the buffer to a recency weight that decays
// linearly with buffer position: the newest event weighs 1, the oldest
// 1/n for n buffered events (1/capacity once the ring is full). Search
// queries do not boost paths.
func (t *Tracker) BoostWeights() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	weights := map[string]float64{}
	n := len(t.events)
	for i, ev := range t.events {
		if ev.Kind == EventSearched {
			continue
		}
		w := float64(i+1) / float64(n)
		if w > weights[ev.Value] {
			weights[ev.Value] = w
		}
	}
	return weights
}

// persisted is the on-disk shape of session.json.
type persisted struct {
	SessionID string  `json:"sessionId"`
	Seq       uint64  `json:"seq"`
	Events    []Event `json:"events"`
}

// Flush writes the buffer to dir/session.json, at most once per flush
// interval unless force is set. Clean shutdown calls Flush(dir, true).
func (t *Tracker) Flush(dir string, force bool) error {
	t.mu.Lock()
	if !t.dirty || (!force && time.Since(t.lastFlush) < t.interval) {
		t.mu.Unlock()
		return nil
	}
	snapshot := persisted{
		SessionID: t.id,
		Seq:       t.seq,
		Events:    append([]Event(nil), t.events...),
	}
	t.dirty = false
	t.lastFlush = time.Now()
	t.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return store.WriteFileAtomic(dir, store.SessionFile, append(data, '\n'))
}

// Restore loads persisted events from dir/session.json into a fresh
// tracker. A missing or corrupt file yields an empty tracker.
func Restore(dir string, capacity int, flushInterval time.Duration) *Tracker {
	t := NewTracker(capacity, flushInterval)

	data, ok, err := store.ReadFile(dir, store.SessionFile)
	if err != nil || !ok {
		return t
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return t
	}

	if p.SessionID != "" {
		t.id = p.SessionID
	}
	t.seq = p.Seq
	t.events = p.Events
	if len(t.events) > t.capacity {
		t.events = t.events[len(t.events)-t.capacity:]
	}
	return t
}
