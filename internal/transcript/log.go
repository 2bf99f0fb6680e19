// Package transcript keeps the scrolling log of communication between the
// user, the orchestrator and its agents.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries bounds a Log created with a non-positive limit.
const DefaultMaxEntries = 500

// Direction tells whether a message travels towards the agents or back.
type Direction string

const (
	To   Direction = "to"
	From Direction = "from"
)

// Entry is one transcript line.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	HTML      bool      `json:"html,omitempty"`
	At        time.Time `json:"at"`
}

// Log is a bounded, append-only transcript. The oldest entries are dropped
// once the limit is reached.
type Log struct {
	mu      sync.RWMutex
	max     int
	entries []Entry
	sink    io.Writer
	now     func() time.Time
}

// New creates a log holding at most maxEntries. When sink is non-nil every
// appended entry is also written to it as one "[dir] text" line.
func New(maxEntries int, sink io.Writer) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{max: maxEntries, sink: sink, now: time.Now}
}

// Append adds an entry and returns it.
func (l *Log) Append(dir Direction, text string, html bool) Entry {
	e := Entry{
		ID:        uuid.New(),
		Direction: dir,
		Text:      text,
		HTML:      html,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e.At = l.now()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	if l.sink != nil {
		fmt.Fprintf(l.sink, "[%s] %s\n", dir, text)
	}
	return e
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ServeHTTP writes the entries as a JSON array.
func (l *Log) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := l.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
