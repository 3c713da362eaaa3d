package media

import (
	"Studio/internal/entity"
	"Studio/internal/test"
	"Studio/pkg/log"
	"Studio/pkg/validations"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	apiKey    = "APIstudio"
	apiSecret = "studio-livekit-secret-for-tests-only"
	roomName  = "studio"
)

type stubLister struct {
	resp *livekit.ListParticipantsResponse
	err  error
	room string
}

func (s *stubLister) ListParticipants(ctx context.Context, req *livekit.ListParticipantsRequest) (*livekit.ListParticipantsResponse, error) {
	s.room = req.GetRoom()
	return s.resp, s.err
}

func TestSampleCountsSubscribers(t *testing.T) {
	lister := &stubLister{resp: &livekit.ListParticipantsResponse{Participants: []*livekit.ParticipantInfo{
		{Identity: "viewer-1"},
		{Identity: "viewer-2"},
		{Identity: "guest-1", Tracks: []*livekit.TrackInfo{{Sid: "TR_1"}}},
		{Identity: "guest-2", Permission: &livekit.ParticipantPermission{CanPublish: true}},
	}}}
	room := NewRoomWithClient(lister, apiKey, apiSecret, roomName, log.Nop())

	delta, err := room.Sample(context.Background())
	require.NoError(t, err)

	var m entity.Metrics
	delta(&m)
	assert.Equal(t, 2, m.LiveViewers)
	assert.Equal(t, roomName, lister.room)
}

func TestSamplePropagatesErrors(t *testing.T) {
	room := NewRoomWithClient(&stubLister{err: errors.New("twirp error")}, apiKey, apiSecret, roomName, log.Nop())

	delta, err := room.Sample(context.Background())
	assert.Error(t, err)
	assert.Nil(t, delta)
}

func TestGuestTokenGrantsRoomJoin(t *testing.T) {
	room := NewRoomWithClient(&stubLister{}, apiKey, apiSecret, roomName, log.Nop())

	token, err := room.GuestToken(context.Background(), "guest-7", "Grace")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte(apiSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, "guest-7", claims["sub"])
	assert.Equal(t, "Grace", claims["name"])
	video, ok := claims["video"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, roomName, video["room"])
	assert.Equal(t, true, video["roomJoin"])
}

type memoryRoster struct {
	mu      sync.Mutex
	guests  map[string]entity.Guest
	added   int
	removed []string
}

func newRoster(t *testing.T) *memoryRoster {
	t.Helper()
	validations.RegisterCustomValidations(context.Background(), log.Nop())
	return &memoryRoster{guests: map[string]entity.Guest{}}
}

func (r *memoryRoster) HasGuest(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.guests[id]
	return ok
}

func (r *memoryRoster) AddGuest(ctx context.Context, actor string, guest entity.Guest) []entity.Guest {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guests[guest.ID] = guest
	r.added++
	return nil
}

func (r *memoryRoster) RemoveGuest(ctx context.Context, actor, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	_, ok := r.guests[id]
	delete(r.guests, id)
	return ok
}

func signedWebhook(t *testing.T, event *livekit.WebhookEvent, secret string) *http.Request {
	body, err := protojson.Marshal(event)
	require.NoError(t, err)
	sum := sha256.Sum256(body)

	at := auth.NewAccessToken(apiKey, secret).
		SetValidFor(time.Minute).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:]))
	token, err := at.ToJWT()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/livekit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/webhook+json")
	req.Header.Set("Authorization", token)
	return req
}

func TestWebhookDrivesRoster(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	joined := &livekit.WebhookEvent{
		Event:       "participant_joined",
		Room:        &livekit.Room{Name: roomName},
		Participant: &livekit.ParticipantInfo{Identity: "guest-1", Name: "Grace", Permission: &livekit.ParticipantPermission{CanPublish: true}},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhook(t, joined, apiSecret))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Grace", roster.guests["guest-1"].Name)

	left := &livekit.WebhookEvent{
		Event:       "participant_left",
		Room:        &livekit.Room{Name: roomName},
		Participant: &livekit.ParticipantInfo{Identity: "guest-1"},
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhook(t, left, apiSecret))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, roster.guests)
}

func TestWebhookIgnoresOtherRooms(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	event := &livekit.WebhookEvent{
		Event:       "participant_joined",
		Room:        &livekit.Room{Name: "backstage"},
		Participant: &livekit.ParticipantInfo{Identity: "guest-2"},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhook(t, event, apiSecret))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, roster.guests)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	event := &livekit.WebhookEvent{Event: "participant_joined", Participant: &livekit.ParticipantInfo{Identity: "x"}}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhook(t, event, "some-other-secret-entirely"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, roster.guests)
}

func deliver(t *testing.T, router http.Handler, event *livekit.WebhookEvent) {
	t.Helper()
	event.Room = &livekit.Room{Name: roomName}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhook(t, event, apiSecret))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestWebhookKeepsViewersOffRoster(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	deliver(t, router, &livekit.WebhookEvent{
		Event:       "participant_joined",
		Participant: &livekit.ParticipantInfo{Identity: "viewer-1", Name: "Lurker"},
	})
	assert.Empty(t, roster.guests)

	// Publishing a track promotes the viewer, further tracks don't add it again.
	for _, sid := range []string{"TR_audio", "TR_video"} {
		deliver(t, router, &livekit.WebhookEvent{
			Event:       "track_published",
			Participant: &livekit.ParticipantInfo{Identity: "viewer-1", Name: "Lurker", Tracks: []*livekit.TrackInfo{{Sid: sid}}},
		})
	}
	assert.Equal(t, "Lurker", roster.guests["viewer-1"].Name)
	assert.Equal(t, 1, roster.added)
}

func TestWebhookIgnoresMissingParticipant(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	deliver(t, router, &livekit.WebhookEvent{Event: "participant_joined"})
	deliver(t, router, &livekit.WebhookEvent{Event: "participant_left"})
	deliver(t, router, &livekit.WebhookEvent{
		Event:       "participant_joined",
		Participant: &livekit.ParticipantInfo{Name: "No identity", Permission: &livekit.ParticipantPermission{CanPublish: true}},
	})

	assert.Empty(t, roster.guests)
	assert.Zero(t, roster.added)
	assert.Empty(t, roster.removed)
}

func TestWebhookRejectsInvalidGuest(t *testing.T) {
	roster := newRoster(t)
	router := test.MockRouter()
	router.POST("/webhooks/livekit", WebhookHandler(roster, apiKey, apiSecret, roomName, log.Nop()))

	deliver(t, router, &livekit.WebhookEvent{
		Event:       "participant_joined",
		Participant: &livekit.ParticipantInfo{Identity: "guest-9", Name: "   ", Permission: &livekit.ParticipantPermission{CanPublish: true}},
	})
	assert.Empty(t, roster.guests)
}
