package command

import (
	"Studio/internal/chronicle"
	"Studio/internal/entity"
	"Studio/internal/state"
)

// Replay builds the join-time state sync from the store and the chronicle. It only reads,
// so the hub may call it while holding its own lock.
type Replay struct {
	store *state.Store
	log   *chronicle.Log
}

func NewReplay(store *state.Store, log *chronicle.Log) *Replay {
	return &Replay{store: store, log: log}
}

// Replay returns the full state snapshot; the control channel also gets the whole chronicle,
// newest first.
func (r *Replay) Replay(channel string) []entity.Event {
	events := []entity.Event{{Name: entity.EventStateSync, Data: r.store.Snapshot()}}
	if channel == entity.ChannelControl {
		events = append(events, entity.Event{Name: entity.EventChronicleBatch, Data: r.log.List(chronicle.Filter{})})
	}
	return events
}
