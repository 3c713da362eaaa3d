// ChronicleLog is the bounded, newest-first audit trail of the command centre.

package chronicle

import (
	"Studio/internal/entity"
	"sync"
	"time"

	"github.com/rs/xid"
)

// Capacity is the hard upper bound on retained entries.
const Capacity = 100

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	// Matches either the entry type or its category
	Match string
	// Only entries of this type
	Type  string
	Limit int
}

// Sink receives every appended entry, e.g. the redis Archiver.
type Sink interface {
	Enqueue(entry entity.ChronicleEntry)
}

// Log is a fixed-size ring; head points at the slot the next entry goes into.
type Log struct {
	mu    sync.RWMutex
	ring  [Capacity]entity.ChronicleEntry
	head  int
	size  int
	now   func() time.Time
	sinks []Sink
}

// NewLog returns an empty Log forwarding appended entries to sinks.
func NewLog(sinks ...Sink) *Log {
	return &Log{now: time.Now, sinks: sinks}
}

// Append stamps the draft with an id and a timestamp and stores it at the head,
// evicting the oldest entry once Capacity is reached.
func (l *Log) Append(draft entity.ChronicleDraft) entity.ChronicleEntry {
	e := entity.ChronicleEntry{
		// xid ids are time ordered with a random component
		ID:        xid.New().String(),
		Timestamp: l.now().UTC(),
		Type:      draft.Type,
		Category:  draft.Category,
		Action:    draft.Action,
		Title:     draft.Title,
		Actor:     draft.Actor,
		Target:    draft.Target,
		Message:   draft.Message,
		Details:   copyDetails(draft.Details),
	}
	if e.Type == "" {
		e.Type = entity.ChronicleSystem
	}

	l.mu.Lock()
	l.ring[l.head] = cloneEntry(e)
	l.head = (l.head + 1) % Capacity
	if l.size < Capacity {
		l.size++
	}
	sinks := l.sinks
	l.mu.Unlock()

	for _, s := range sinks {
		s.Enqueue(cloneEntry(e))
	}
	return e
}

// List returns a newest-first copy of the retained entries narrowed by filter.
func (l *Log) List(filter Filter) []entity.ChronicleEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entity.ChronicleEntry, 0, l.size)
	for i := 1; i <= l.size; i++ {
		e := l.ring[(l.head-i+Capacity)%Capacity]
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Match != "" && e.Type != filter.Match && e.Category != filter.Match {
			continue
		}
		out = append(out, cloneEntry(e))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Entries handed out never share Details with the ring.
func cloneEntry(e entity.ChronicleEntry) entity.ChronicleEntry {
	e.Details = copyDetails(e.Details)
	return e
}

func copyDetails(details map[string]interface{}) map[string]interface{} {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = copyValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = copyValue(inner)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
