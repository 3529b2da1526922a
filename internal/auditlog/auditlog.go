// Package auditlog keeps a ring buffer of recent manager.Decision
// records with a non-blocking subscriber fan-out, for the observer
// server (C10) and any future operator tooling (spec component C11).
//
// Grounded directly on the teacher's server/audit.go auditState: same
// ring-buffer-plus-RWMutex shape, same ID/timestamp stamping on
// append, same non-blocking broadcast-to-subscribers loop — adapted
// from "simulation.Event" to "manager.Decision".
package auditlog

import (
	"strconv"
	"sync"
	"time"

	"github.com/railvorhersage/predictengine/internal/manager"
)

// Entry is one audited decision, timestamped and numbered at append
// time.
type Entry struct {
	ID        string
	Timestamp string
	JourneyID string
	Admitted  bool
	ActionAt  string // HH:MM:SS rendering of the proposed action's time
	RetryAt   string // HH:MM:SS rendering of the retry time, when denied
}

// Log is a bounded, concurrency-safe record of recent Decisions.
type Log struct {
	mu          sync.RWMutex
	entries     []Entry
	capacity    int
	nextID      int64
	subscribers map[chan Entry]bool
}

// New builds a Log holding at most capacity entries.
func New(capacity int) *Log {
	return &Log{
		capacity:    capacity,
		entries:     make([]Entry, 0, capacity),
		subscribers: make(map[chan Entry]bool),
	}
}

// Record converts a manager.Decision into an Entry and appends it,
// evicting the oldest entry first if the log is at capacity.
func (l *Log) Record(d manager.Decision) {
	entry := Entry{
		JourneyID: d.JourneyID,
		Admitted:  d.Admitted,
		ActionAt:  d.Action.Time.String(),
	}
	if d.RetryAt != nil {
		entry.RetryAt = d.RetryAt.String()
	}
	l.append(entry)
}

func (l *Log) append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	entry.ID = strconv.FormatInt(l.nextID, 10)
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if len(l.entries) == l.capacity {
		copy(l.entries[0:], l.entries[1:])
		l.entries[len(l.entries)-1] = entry
	} else {
		l.entries = append(l.entries, entry)
	}

	for ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// drop if the subscriber is slow; audit delivery is best-effort
		}
	}
}

// Subscribe returns a channel that receives every Entry appended after
// this call. Unsubscribe closes and removes it.
func (l *Log) Subscribe() chan Entry {
	ch := make(chan Entry, 256)
	l.mu.Lock()
	l.subscribers[ch] = true
	l.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (l *Log) Unsubscribe(ch chan Entry) {
	l.mu.Lock()
	delete(l.subscribers, ch)
	l.mu.Unlock()
	close(ch)
}

// Since returns up to limit entries with an ID strictly greater than
// sinceID, oldest first.
func (l *Log) Since(sinceID int64, limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for _, e := range l.entries {
		id, _ := strconv.ParseInt(e.ID, 10, 64)
		if id > sinceID {
			out = append(out, e)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}
