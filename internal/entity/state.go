// Structure of the BroadcastState model, the single source of live operational truth.

package entity

import "time"

// Scene forced by the emergency fallback command.
const FallbackScene = "fallback"

type Stream struct {
	IsLive       bool       `json:"isLive"`
	IsRecording  bool       `json:"isRecording"`
	CurrentScene string     `json:"currentScene"`
	StartedAt    *time.Time `json:"startedAt"`
}

type Guest struct {
	ID                string  `json:"id" valid:"required,type(string),printableascii,stringlength(1|64)"`
	Name              string  `json:"name" valid:"required,type(string),stringlength(1|64),nospaceonly~name:Guest name cannot contain only spaces"`
	ConnectionQuality float64 `json:"connectionQuality" valid:"range(0|1)"`
	CPULoad           float64 `json:"cpuLoad" valid:"-"`
	AudioLevel        float64 `json:"audioLevel" valid:"-"`
}

// Controls are the studio-wide switches toggled by chat:seal and studio:lock.
type Controls struct {
	ChatSealed   bool `json:"chatSealed"`
	StudioLocked bool `json:"studioLocked"`
}

type BroadcastState struct {
	Stream   Stream   `json:"stream"`
	Metrics  Metrics  `json:"metrics"`
	Guests   []Guest  `json:"guests"`
	Controls Controls `json:"controls"`
}

// Clone returns a deep copy of the state; nothing in it aliases the original.
func (s BroadcastState) Clone() BroadcastState {
	if s.Stream.StartedAt != nil {
		t := *s.Stream.StartedAt
		s.Stream.StartedAt = &t
	}
	s.Metrics = s.Metrics.Clone()
	s.Guests = cloneGuests(s.Guests)
	return s
}

func cloneGuests(guests []Guest) []Guest {
	out := make([]Guest, len(guests))
	copy(out, guests)
	return out
}
