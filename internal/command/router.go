// CommandRouter: the single writer of the BroadcastState and the chronicle.

package command

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/internal/monitor"
	"Studio/internal/state"
	"Studio/pkg/log"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher is the part of the hub the router writes through.
type Publisher interface {
	Publish(channel, name string, payload interface{})
	PublishCrossChannel(channels []string, name string, payload interface{})
}

// Dispatch is one event and the channels it goes to.
type Dispatch struct {
	Channels []string
	Event    entity.Event
}

// Result describes what handling a command did.
type Result struct {
	// Nil for relay commands
	StateDelta map[string]interface{}
	Entry      entity.ChronicleEntry
	Events     []Dispatch
}

// Router serializes every mutation: apply, append to the chronicle, then publish,
// all under one lock so subscribers observe mutations in the order they were applied.
type Router struct {
	mu         sync.Mutex
	store      *state.Store
	log        *chronicle.Log
	hub        Publisher
	collectors *monitor.Collectors
	logger     log.Logger
}

func NewRouter(store *state.Store, log *chronicle.Log, hub Publisher, collectors *monitor.Collectors, logger log.Logger) *Router {
	return &Router{store: store, log: log, hub: hub, collectors: collectors, logger: logger}
}

// Handle applies cmd on behalf of principal. A rejected command changes nothing and appends nothing.
func (r *Router) Handle(ctx context.Context, principal entity.Principal, cmd Command) (Result, error) {
	name := "unknown"
	if cmd != nil {
		name = cmd.Name()
	}
	if err := auth.Authorize(principal); err != nil {
		r.collectors.CommandHandled(name, "forbidden")
		return Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.apply(principal, cmd)
	if err != nil {
		r.collectors.CommandHandled(name, "rejected")
		r.logger.WithCtx(ctx).Warn().Err(err).Str("command", name).Str("principal", principal.ID).Msg("Command rejected")
		return Result{}, err
	}
	r.publish(res.Events)
	r.collectors.CommandHandled(name, "ok")
	r.logger.WithCtx(ctx).Info().Str("command", name).Str("principal", principal.ID).Str("entry", res.Entry.ID).Msg("Command applied")
	return res, nil
}

// HandleFrame decodes a wire command and handles it.
func (r *Router) HandleFrame(ctx context.Context, principal entity.Principal, name string, payload json.RawMessage) (Result, error) {
	cmd, err := Decode(name, payload)
	if err != nil {
		r.collectors.CommandHandled(name, "rejected")
		r.logger.WithCtx(ctx).Warn().Err(err).Str("command", name).Str("principal", principal.ID).Msg("Command rejected")
		return Result{}, err
	}
	return r.Handle(ctx, principal, cmd)
}

// apply requires r.mu to be held.
func (r *Router) apply(principal entity.Principal, cmd Command) (Result, error) {
	actor := principal.DisplayName
	control := []string{entity.ChannelControl}

	switch cmd := cmd.(type) {
	case StreamStart, StreamStop, RecordingStart, RecordingStop, SceneSwitch, SceneFallback:
		draft := streamDraft(cmd, actor)
		transition := state.StreamCommand{Kind: cmd.Name()}
		if sw, ok := cmd.(SceneSwitch); ok {
			transition.SceneID = sw.SceneID
		}
		stream := r.store.ApplyStreamCommand(transition)
		entry := r.append(draft)

		events := []Dispatch{
			{Channels: control, Event: entity.Event{Name: entity.EventStreamState, Data: stream}},
			{Channels: control, Event: entity.Event{Name: entity.EventChronicleEntry, Data: entry}},
		}
		if _, fallback := cmd.(SceneFallback); fallback {
			events = append(events, Dispatch{Channels: control, Event: entity.Event{Name: entity.EventSystemAlert, Data: entity.SystemAlert{
				Severity: "critical",
				Title:    "Emergency fallback engaged",
				Message:  fmt.Sprintf("%s switched the broadcast to the fallback scene.", actor),
			}}})
		}
		return Result{StateDelta: map[string]interface{}{"stream": stream}, Entry: entry, Events: events}, nil

	case ChatSeal:
		controls := r.store.SetControls(func(c *entity.Controls) { c.ChatSealed = cmd.Sealed })
		action, title := "chat_unseal", "Chat unsealed"
		if cmd.Sealed {
			action, title = "chat_seal", "Chat sealed"
		}
		entry := r.append(entity.ChronicleDraft{Type: entity.ChronicleModerator, Category: "chat", Action: action, Title: title, Actor: actor})
		return Result{
			StateDelta: map[string]interface{}{"controls": controls},
			Entry:      entry,
			Events: []Dispatch{
				{Channels: control, Event: entity.Event{Name: entity.EventChatSealed, Data: map[string]bool{"sealed": cmd.Sealed}}},
				{Channels: control, Event: entity.Event{Name: entity.EventChronicleEntry, Data: entry}},
			},
		}, nil

	case StudioLock:
		controls := r.store.SetControls(func(c *entity.Controls) { c.StudioLocked = cmd.Locked })
		action, title := "studio_unlock", "Studio unlocked"
		if cmd.Locked {
			action, title = "studio_lock", "Studio locked"
		}
		entry := r.append(entity.ChronicleDraft{Type: entity.ChronicleModerator, Category: "studio", Action: action, Title: title, Actor: actor})
		return Result{
			StateDelta: map[string]interface{}{"controls": controls},
			Entry:      entry,
			Events: []Dispatch{
				{Channels: []string{entity.ChannelControl, entity.ChannelStudio}, Event: entity.Event{Name: entity.EventStudioLocked, Data: map[string]bool{"locked": cmd.Locked}}},
				{Channels: control, Event: entity.Event{Name: entity.EventChronicleEntry, Data: entry}},
			},
		}, nil

	case OverlayTrigger:
		entry := r.append(entity.ChronicleDraft{Type: entity.ChronicleModerator, Category: "overlay", Action: "overlay_trigger", Title: "Overlay triggered", Actor: actor, Target: cmd.OverlayID})
		payload := map[string]interface{}{"overlayId": cmd.OverlayID, "triggeredBy": actor}
		if len(cmd.Params) > 0 {
			payload["params"] = cmd.Params
		}
		return Result{
			Entry: entry,
			Events: []Dispatch{
				{Channels: []string{entity.ChannelOverlay, entity.ChannelStudio}, Event: entity.Event{Name: entity.EventOverlayTrigger, Data: payload}},
				{Channels: control, Event: entity.Event{Name: entity.EventChronicleEntry, Data: entry}},
			},
		}, nil

	case BroadcastAnnounce:
		entry := r.append(entity.ChronicleDraft{Type: entity.ChronicleModerator, Category: "broadcast", Action: "broadcast_announce", Title: "Announcement sent", Actor: actor, Message: cmd.Message})
		return Result{
			Entry: entry,
			Events: []Dispatch{
				{Channels: []string{entity.ChannelStudio, entity.ChannelControl}, Event: entity.Event{Name: entity.EventBroadcastMsg, Data: entity.BroadcastMessage{Message: cmd.Message, From: actor}}},
				{Channels: control, Event: entity.Event{Name: entity.EventChronicleEntry, Data: entry}},
			},
		}, nil
	}

	if cmd == nil {
		return Result{}, errors.UnknownCommand("")
	}
	return Result{}, errors.UnknownCommand(cmd.Name())
}

func streamDraft(cmd Command, actor string) entity.ChronicleDraft {
	switch cmd := cmd.(type) {
	case StreamStart:
		return entity.ChronicleDraft{Type: entity.ChronicleSystem, Category: "stream", Action: "stream_start", Title: "Stream started", Actor: actor}
	case StreamStop:
		return entity.ChronicleDraft{Type: entity.ChronicleSystem, Category: "stream", Action: "stream_stop", Title: "Stream stopped", Actor: actor}
	case RecordingStart:
		return entity.ChronicleDraft{Type: entity.ChronicleSystem, Category: "recording", Action: "recording_start", Title: "Recording started", Actor: actor}
	case RecordingStop:
		return entity.ChronicleDraft{Type: entity.ChronicleSystem, Category: "recording", Action: "recording_stop", Title: "Recording stopped", Actor: actor}
	case SceneSwitch:
		return entity.ChronicleDraft{Type: entity.ChronicleModerator, Category: "scene", Action: "scene_switch", Title: "Scene switched", Actor: actor, Target: cmd.SceneID}
	default:
		return entity.ChronicleDraft{Type: entity.ChronicleDanger, Category: "scene", Action: "scene_fallback", Title: "Emergency fallback scene", Actor: actor, Target: entity.FallbackScene}
	}
}

// append requires r.mu to be held.
func (r *Router) append(draft entity.ChronicleDraft) entity.ChronicleEntry {
	entry := r.log.Append(draft)
	r.collectors.ChronicleAppended(entry.Type)
	return entry
}

// publish requires r.mu to be held.
func (r *Router) publish(events []Dispatch) {
	for _, d := range events {
		if len(d.Channels) == 1 {
			r.hub.Publish(d.Channels[0], d.Event.Name, d.Event.Data)
			continue
		}
		r.hub.PublishCrossChannel(d.Channels, d.Event.Name, d.Event.Data)
	}
}
