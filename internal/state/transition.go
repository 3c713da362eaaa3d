package state

import (
	"Studio/internal/entity"
	"time"
)

// StreamCommand names a transition of the stream state machine.
type StreamCommand struct {
	Kind    string
	SceneID string
}

// Transition kinds, named after the channel commands which trigger them.
const (
	StreamStart    = "stream:start"
	StreamStop     = "stream:stop"
	RecordingStart = "recording:start"
	RecordingStop  = "recording:stop"
	SceneSwitch    = "scene:switch"
	SceneFallback  = "scene:fallback"
)

// Transition is the pure stream state machine. Live and recording are independent axes,
// the scene is an open domain. Starting an already live stream re-stamps StartedAt.
// Unknown kinds leave the stream untouched.
func Transition(stream entity.Stream, cmd StreamCommand, now time.Time) entity.Stream {
	switch cmd.Kind {
	case StreamStart:
		started := now.UTC()
		stream.IsLive = true
		stream.StartedAt = &started
	case StreamStop:
		stream.IsLive = false
		stream.StartedAt = nil
	case RecordingStart:
		stream.IsRecording = true
	case RecordingStop:
		stream.IsRecording = false
	case SceneSwitch:
		stream.CurrentScene = cmd.SceneID
	case SceneFallback:
		stream.CurrentScene = entity.FallbackScene
	}
	return stream
}
