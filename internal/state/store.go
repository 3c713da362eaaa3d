// BroadcastState store. Reads hand out deep copies; writers are serialized by the command router.

package state

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Scene a fresh process starts on.
const DefaultScene = "main"

// DefaultState is the BroadcastState of a freshly started process: offline, idle metrics.
func DefaultState() entity.BroadcastState {
	return entity.BroadcastState{
		Stream: entity.Stream{CurrentScene: DefaultScene},
		Metrics: entity.Metrics{
			Bitrate:       6000,
			FPS:           60,
			LatencyMs:     1200,
			SentimentTide: 0.5,
			Guests:        []entity.Guest{},
			ServerLoad:    entity.ServerLoad{CPU: 0.2, GPU: 0.15, RAM: 0.35},
			APILatencyMs:  45,
		},
		Guests: []entity.Guest{},
	}
}

type Store struct {
	mu    sync.RWMutex
	state entity.BroadcastState
	now   func() time.Time
}

func NewStore(initial entity.BroadcastState) *Store {
	s := &Store{state: initial.Clone(), now: time.Now}
	s.state.Metrics.Guests = s.state.Guests
	return s
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() entity.BroadcastState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Stream() entity.Stream {
	return s.Snapshot().Stream
}

func (s *Store) Metrics() entity.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Metrics.Clone()
}

func (s *Store) Guests() []entity.Guest {
	return s.Snapshot().Guests
}

func (s *Store) Controls() entity.Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Controls
}

// ApplyStreamCommand runs Transition against the live stream and returns the new stream.
func (s *Store) ApplyStreamCommand(cmd StreamCommand) entity.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Stream = Transition(s.state.Stream, cmd, s.now())
	return s.clone().Stream
}

// SetControls mutates the studio controls and returns the result.
func (s *Store) SetControls(mutate func(*entity.Controls)) entity.Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.state.Controls)
	return s.state.Controls
}

// UpdateMetrics lets a metrics source mutate the live metrics in place.
// The roster mirror is restored afterwards, sources don't own it.
func (s *Store) UpdateMetrics(mutate func(*entity.Metrics)) entity.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.state.Metrics)
	s.state.Metrics.Guests = s.state.Guests
	return s.state.Metrics.Clone()
}

// Keys of Metrics which MergeMetrics refuses to overwrite.
var unmergeable = map[string]struct{}{"guests": {}}

// MergeMetrics shallow-merges partial into the live metrics: every known top-level key present in
// partial replaces the current value whole, last write wins. Unknown keys are ignored.
// No range validation is performed. A value of the wrong type fails the whole merge.
func (s *Store) MergeMetrics(partial map[string]json.RawMessage) (entity.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := json.Marshal(s.state.Metrics)
	if err != nil {
		return entity.Metrics{}, errors.InternalServerError("")
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return entity.Metrics{}, errors.InternalServerError("")
	}
	for key, value := range partial {
		if _, known := fields[key]; !known {
			continue
		}
		if _, skip := unmergeable[key]; skip {
			continue
		}
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return entity.Metrics{}, errors.BadRequest("Metrics payload couldn't be encoded.")
	}
	var next entity.Metrics
	if err := json.Unmarshal(merged, &next); err != nil {
		return entity.Metrics{}, errors.BadRequest(fmt.Sprintf("Metrics payload rejected: %v", err))
	}
	next.Guests = s.state.Guests
	s.state.Metrics = next
	return next.Clone(), nil
}

// AddGuest appends guest to the roster, or replaces the entry with the same id in place.
func (s *Store) AddGuest(guest entity.Guest) []entity.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.state.Guests {
		if s.state.Guests[i].ID == guest.ID {
			s.state.Guests[i] = guest
			replaced = true
			break
		}
	}
	if !replaced {
		s.state.Guests = append(s.state.Guests, guest)
	}
	s.state.Metrics.Guests = s.state.Guests
	return s.clone().Guests
}

// RemoveGuest drops the guest with id. Removing an absent id is a no-op which reports false.
func (s *Store) RemoveGuest(id string) (entity.Guest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.state.Guests {
		if g.ID == id {
			guests := make([]entity.Guest, 0, len(s.state.Guests)-1)
			guests = append(guests, s.state.Guests[:i]...)
			guests = append(guests, s.state.Guests[i+1:]...)
			s.state.Guests = guests
			s.state.Metrics.Guests = guests
			return g, true
		}
	}
	return entity.Guest{}, false
}

// clone copies the state; the caller must hold mu.
func (s *Store) clone() entity.BroadcastState {
	return s.state.Clone()
}
