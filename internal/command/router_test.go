package command

import (
	"Studio/internal/chronicle"
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/internal/hub"
	"Studio/internal/state"
	"Studio/pkg/log"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	name    string
	payload interface{}
}

type recordingHub struct {
	mu     sync.Mutex
	events []published
}

func (h *recordingHub) Publish(channel, name string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, published{channel: channel, name: name, payload: payload})
}

func (h *recordingHub) PublishCrossChannel(channels []string, name string, payload interface{}) {
	for _, ch := range channels {
		h.Publish(ch, name, payload)
	}
}

func (h *recordingHub) named(name string) []published {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []published
	for _, e := range h.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

var admin = entity.Principal{ID: "u-1", DisplayName: "Ada", Role: entity.RoleOrgAdmin}

func newRouter(initial entity.BroadcastState) (*Router, *state.Store, *chronicle.Log, *recordingHub) {
	store := state.NewStore(initial)
	clog := chronicle.NewLog()
	pub := &recordingHub{}
	return NewRouter(store, clog, pub, nil, log.Nop()), store, clog, pub
}

func TestStreamStartGoesLive(t *testing.T) {
	router, store, clog, pub := newRouter(state.DefaultState())

	res, err := router.Handle(context.Background(), admin, StreamStart{})
	require.NoError(t, err)

	stream := store.Stream()
	assert.True(t, stream.IsLive)
	require.NotNil(t, stream.StartedAt)
	assert.Equal(t, 1, clog.Len())
	assert.Equal(t, "stream_start", res.Entry.Action)
	assert.Equal(t, "Ada", res.Entry.Actor)

	states := pub.named(entity.EventStreamState)
	require.Len(t, states, 1)
	assert.Equal(t, entity.ChannelControl, states[0].channel)
	assert.Len(t, pub.named(entity.EventChronicleEntry), 1)
}

func TestStreamStartWhileLiveRestampsStartedAt(t *testing.T) {
	router, store, clog, _ := newRouter(state.DefaultState())

	_, err := router.Handle(context.Background(), admin, StreamStart{})
	require.NoError(t, err)
	first := *store.Stream().StartedAt

	_, err = router.Handle(context.Background(), admin, StreamStart{})
	require.NoError(t, err)
	second := store.Stream()

	assert.True(t, second.IsLive)
	assert.False(t, second.StartedAt.Before(first))
	assert.Equal(t, 2, clog.Len())
}

func TestSceneFallbackEscalates(t *testing.T) {
	router, store, _, pub := newRouter(state.DefaultState())

	res, err := router.Handle(context.Background(), admin, SceneFallback{})
	require.NoError(t, err)

	assert.Equal(t, entity.FallbackScene, store.Stream().CurrentScene)
	assert.Equal(t, entity.ChronicleDanger, res.Entry.Type)

	alerts := pub.named(entity.EventSystemAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].payload.(entity.SystemAlert).Severity)
	assert.Len(t, pub.named(entity.EventStreamState), 1)
}

func TestMutatingCommandsAppendExactlyOneEntry(t *testing.T) {
	commands := []Command{
		StreamStart{}, StreamStop{}, RecordingStart{}, RecordingStop{},
		SceneSwitch{SceneID: "interview"}, SceneFallback{},
		ChatSeal{Sealed: true}, ChatSeal{Sealed: false},
		StudioLock{Locked: true}, StudioLock{Locked: false},
	}
	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			router, _, clog, _ := newRouter(state.DefaultState())
			res, err := router.Handle(context.Background(), admin, cmd)
			require.NoError(t, err)
			assert.NotNil(t, res.StateDelta)
			assert.Equal(t, 1, clog.Len())
		})
	}
}

func TestRelayCommandsLeaveStateAlone(t *testing.T) {
	router, store, _, pub := newRouter(state.DefaultState())
	before := store.Snapshot()

	res, err := router.Handle(context.Background(), admin, OverlayTrigger{OverlayID: "lower-third"})
	require.NoError(t, err)
	assert.Nil(t, res.StateDelta)

	_, err = router.Handle(context.Background(), admin, BroadcastAnnounce{Message: "back in 5"})
	require.NoError(t, err)

	assert.Equal(t, before, store.Snapshot())

	overlays := pub.named(entity.EventOverlayTrigger)
	require.Len(t, overlays, 2)
	assert.ElementsMatch(t, []string{entity.ChannelOverlay, entity.ChannelStudio}, []string{overlays[0].channel, overlays[1].channel})

	messages := pub.named(entity.EventBroadcastMsg)
	require.Len(t, messages, 2)
	assert.Equal(t, entity.BroadcastMessage{Message: "back in 5", From: "Ada"}, messages[0].payload)
}

type bogus struct{}

func (bogus) Name() string { return "stream:explode" }
func (bogus) command()     {}

func TestUnknownCommandFailsClosed(t *testing.T) {
	router, store, clog, pub := newRouter(state.DefaultState())
	before := store.Snapshot()

	_, err := router.Handle(context.Background(), admin, bogus{})
	assert.ErrorIs(t, err, errors.ErrorResponse{Code: errors.CodeUnknownCommand})

	_, err = router.HandleFrame(context.Background(), admin, "stream:explode", nil)
	assert.ErrorIs(t, err, errors.ErrorResponse{Code: errors.CodeUnknownCommand})

	assert.Equal(t, before, store.Snapshot())
	assert.Zero(t, clog.Len())
	assert.Empty(t, pub.events)
}

func TestHandleRechecksRole(t *testing.T) {
	router, _, clog, _ := newRouter(state.DefaultState())

	_, err := router.Handle(context.Background(), entity.Principal{ID: "v", Role: "viewer"}, StreamStart{})
	assert.ErrorIs(t, err, errors.ErrorResponse{Code: errors.CodeForbidden})
	assert.Zero(t, clog.Len())
}

func TestHandleFrameDecodesPayload(t *testing.T) {
	router, store, _, _ := newRouter(state.DefaultState())

	_, err := router.HandleFrame(context.Background(), admin, NameSceneSwitch, json.RawMessage(`{"sceneId":"guests"}`))
	require.NoError(t, err)
	assert.Equal(t, "guests", store.Stream().CurrentScene)

	_, err = router.HandleFrame(context.Background(), admin, NameChatSeal, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errors.ErrorResponse{Code: errors.CodeInvalidPayload})
	assert.False(t, store.Controls().ChatSealed)
}

func TestRemoveAbsentGuestIsSilent(t *testing.T) {
	initial := state.DefaultState()
	initial.Guests = []entity.Guest{{ID: "g-1", Name: "Grace"}, {ID: "g-2", Name: "Linus"}}
	router, store, clog, pub := newRouter(initial)

	removed := router.RemoveGuest(context.Background(), "Ada", "ghost-id")

	assert.False(t, removed)
	assert.Equal(t, initial.Guests, store.Guests())
	assert.Zero(t, clog.Len())
	assert.Empty(t, pub.events)
}

func TestGuestArrivalAndDepartureAreChronicled(t *testing.T) {
	router, store, clog, pub := newRouter(state.DefaultState())

	guests := router.AddGuest(context.Background(), "Ada", entity.Guest{ID: "g-1", Name: "Grace"})
	require.Len(t, guests, 1)
	assert.Len(t, store.Metrics().Guests, 1)
	assert.True(t, router.HasGuest("g-1"))

	assert.True(t, router.RemoveGuest(context.Background(), "Ada", "g-1"))
	assert.Empty(t, store.Guests())
	assert.False(t, router.HasGuest("g-1"))

	entries := clog.List(chronicle.Filter{})
	require.Len(t, entries, 2)
	assert.Equal(t, "guest_leave", entries[0].Action)
	assert.Equal(t, "guest_join", entries[1].Action)
	assert.Len(t, pub.named(entity.EventMetricsUpdate), 2)
}

func TestMetricsAreNotChronicled(t *testing.T) {
	router, store, clog, pub := newRouter(state.DefaultState())

	metrics, err := router.MergeMetrics(context.Background(), map[string]json.RawMessage{"bitrate": json.RawMessage(`4200`)})
	require.NoError(t, err)
	assert.Equal(t, 4200.0, metrics.Bitrate)

	router.IngestMetrics(func(m *entity.Metrics) { m.LiveViewers = 17 })
	assert.Equal(t, 17, store.Metrics().LiveViewers)

	_, err = router.MergeMetrics(context.Background(), map[string]json.RawMessage{"fps": json.RawMessage(`"fast"`)})
	assert.ErrorIs(t, err, errors.ErrorResponse{Code: errors.CodeBadRequest})

	assert.Zero(t, clog.Len())
	assert.Len(t, pub.named(entity.EventMetricsUpdate), 2)
}

func TestAlertSeverityPicksEntryType(t *testing.T) {
	router, _, _, pub := newRouter(state.DefaultState())

	critical := router.Alert(context.Background(), admin, "critical", "Encoder down", "Primary encoder stopped")
	warning := router.Alert(context.Background(), admin, "", "Bitrate low", "")

	assert.Equal(t, entity.ChronicleDanger, critical.Type)
	assert.Equal(t, entity.ChronicleWarning, warning.Type)
	assert.Len(t, pub.named(entity.EventSystemAlert), 2)
}

type memberConn struct {
	id     string
	mu     sync.Mutex
	events []entity.Event
}

func (c *memberConn) ID() string { return c.id }
func (c *memberConn) Close()     {}
func (c *memberConn) Send(e entity.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *memberConn) last(name string) (entity.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Name == name {
			return c.events[i], true
		}
	}
	return entity.Event{}, false
}

func TestChatSealReachesIssuerAndPeers(t *testing.T) {
	store := state.NewStore(state.DefaultState())
	clog := chronicle.NewLog()
	h := hub.NewHub(NewReplay(store, clog), nil, nil, log.Nop())
	router := NewRouter(store, clog, h, nil, log.Nop())

	a, b := &memberConn{id: "a"}, &memberConn{id: "b"}
	h.Join(entity.ChannelControl, a, admin)
	h.Join(entity.ChannelControl, b, entity.Principal{ID: "u-2", Role: entity.RoleController})

	_, err := router.Handle(context.Background(), admin, ChatSeal{Sealed: true})
	require.NoError(t, err)

	for _, conn := range []*memberConn{a, b} {
		event, ok := conn.last(entity.EventChatSealed)
		require.True(t, ok, conn.id)
		assert.Equal(t, map[string]bool{"sealed": true}, event.Data)
	}
}

func TestLateJoinerConverges(t *testing.T) {
	store := state.NewStore(state.DefaultState())
	clog := chronicle.NewLog()
	h := hub.NewHub(NewReplay(store, clog), nil, nil, log.Nop())
	router := NewRouter(store, clog, h, nil, log.Nop())

	for _, cmd := range []Command{StreamStart{}, SceneSwitch{SceneID: "panel"}, StudioLock{Locked: true}} {
		_, err := router.Handle(context.Background(), admin, cmd)
		require.NoError(t, err)
	}

	late := &memberConn{id: "late"}
	h.Join(entity.ChannelControl, late, admin)

	snap, ok := late.last(entity.EventStateSync)
	require.True(t, ok)
	assert.Equal(t, store.Snapshot(), snap.Data)

	batch, ok := late.last(entity.EventChronicleBatch)
	require.True(t, ok)
	assert.Len(t, batch.Data, 3)
}
