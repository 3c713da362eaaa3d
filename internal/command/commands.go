// Typed command variants accepted on the control channel.

package command

import (
	"Studio/internal/errors"
	"encoding/json"
	"strings"
)

// Command names as they appear on the wire.
const (
	NameStreamStart       = "stream:start"
	NameStreamStop        = "stream:stop"
	NameRecordingStart    = "recording:start"
	NameRecordingStop     = "recording:stop"
	NameSceneSwitch       = "scene:switch"
	NameSceneFallback     = "scene:fallback"
	NameOverlayTrigger    = "overlay:trigger"
	NameChatSeal          = "chat:seal"
	NameStudioLock        = "studio:lock"
	NameBroadcastAnnounce = "broadcast:announce"
)

// Command is implemented by exactly the variants below; the unexported method keeps the set closed.
type Command interface {
	Name() string
	command()
}

type StreamStart struct{}
type StreamStop struct{}
type RecordingStart struct{}
type RecordingStop struct{}

type SceneSwitch struct {
	SceneID string `json:"sceneId"`
}

type SceneFallback struct{}

type OverlayTrigger struct {
	OverlayID string                 `json:"overlayId"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

type ChatSeal struct {
	Sealed bool `json:"sealed"`
}

type StudioLock struct {
	Locked bool `json:"locked"`
}

type BroadcastAnnounce struct {
	Message string `json:"message"`
}

func (StreamStart) Name() string       { return NameStreamStart }
func (StreamStop) Name() string        { return NameStreamStop }
func (RecordingStart) Name() string    { return NameRecordingStart }
func (RecordingStop) Name() string     { return NameRecordingStop }
func (SceneSwitch) Name() string       { return NameSceneSwitch }
func (SceneFallback) Name() string     { return NameSceneFallback }
func (OverlayTrigger) Name() string    { return NameOverlayTrigger }
func (ChatSeal) Name() string          { return NameChatSeal }
func (StudioLock) Name() string        { return NameStudioLock }
func (BroadcastAnnounce) Name() string { return NameBroadcastAnnounce }

func (StreamStart) command()       {}
func (StreamStop) command()        {}
func (RecordingStart) command()    {}
func (RecordingStop) command()     {}
func (SceneSwitch) command()       {}
func (SceneFallback) command()     {}
func (OverlayTrigger) command()    {}
func (ChatSeal) command()          {}
func (StudioLock) command()        {}
func (BroadcastAnnounce) command() {}

// Longest announcement relayed to the studio.
const maxAnnouncement = 500

// Decode turns a wire command into its variant. Unknown names fail with errors.UnknownCommand,
// malformed payloads with errors.InvalidPayload.
func Decode(name string, payload json.RawMessage) (Command, error) {
	switch name {
	case NameStreamStart:
		return StreamStart{}, nil
	case NameStreamStop:
		return StreamStop{}, nil
	case NameRecordingStart:
		return RecordingStart{}, nil
	case NameRecordingStop:
		return RecordingStop{}, nil
	case NameSceneFallback:
		return SceneFallback{}, nil
	case NameSceneSwitch:
		var cmd SceneSwitch
		if err := decodePayload(name, payload, &cmd); err != nil {
			return nil, err
		}
		if strings.TrimSpace(cmd.SceneID) == "" {
			return nil, errors.InvalidPayload(name, "sceneId is required")
		}
		return cmd, nil
	case NameOverlayTrigger:
		var cmd OverlayTrigger
		if err := decodePayload(name, payload, &cmd); err != nil {
			return nil, err
		}
		if strings.TrimSpace(cmd.OverlayID) == "" {
			return nil, errors.InvalidPayload(name, "overlayId is required")
		}
		return cmd, nil
	case NameChatSeal:
		var body struct {
			Sealed *bool `json:"sealed"`
		}
		if err := decodePayload(name, payload, &body); err != nil {
			return nil, err
		}
		if body.Sealed == nil {
			return nil, errors.InvalidPayload(name, "sealed is required")
		}
		return ChatSeal{Sealed: *body.Sealed}, nil
	case NameStudioLock:
		var body struct {
			Locked *bool `json:"locked"`
		}
		if err := decodePayload(name, payload, &body); err != nil {
			return nil, err
		}
		if body.Locked == nil {
			return nil, errors.InvalidPayload(name, "locked is required")
		}
		return StudioLock{Locked: *body.Locked}, nil
	case NameBroadcastAnnounce:
		var cmd BroadcastAnnounce
		if err := decodePayload(name, payload, &cmd); err != nil {
			return nil, err
		}
		cmd.Message = strings.TrimSpace(cmd.Message)
		if cmd.Message == "" {
			return nil, errors.InvalidPayload(name, "message is required")
		}
		if len(cmd.Message) > maxAnnouncement {
			return nil, errors.InvalidPayload(name, "message is too long")
		}
		return cmd, nil
	}
	return nil, errors.UnknownCommand(name)
}

func decodePayload(name string, payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 || string(payload) == "null" {
		return errors.InvalidPayload(name, "payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.InvalidPayload(name, "payload is malformed")
	}
	return nil
}
