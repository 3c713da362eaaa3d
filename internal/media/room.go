// LiveKit room integrations: audience counting and guest access tokens.

package media

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/internal/metrics"
	"Studio/pkg/log"
	"context"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go"
)

// How long a guest invite token stays valid.
const guestTokenTTL = time.Hour

// ParticipantLister is the part of the LiveKit room service the audience counter needs.
type ParticipantLister interface {
	ListParticipants(ctx context.Context, req *livekit.ListParticipantsRequest) (*livekit.ListParticipantsResponse, error)
}

type Room struct {
	name      string
	apiKey    string
	apiSecret string
	client    ParticipantLister
	logger    log.Logger
}

// NewRoom wires a LiveKit room service client for room on host.
func NewRoom(host, apiKey, apiSecret, room string, logger log.Logger) *Room {
	return NewRoomWithClient(lksdk.NewRoomServiceClient(host, apiKey, apiSecret), apiKey, apiSecret, room, logger)
}

func NewRoomWithClient(client ParticipantLister, apiKey, apiSecret, room string, logger log.Logger) *Room {
	return &Room{name: room, apiKey: apiKey, apiSecret: apiSecret, client: client, logger: logger}
}

// Name identifies the room as a metrics source.
func (r *Room) Name() string { return "livekit" }

// Sample counts subscribers in the room and reports them as live viewers.
// Guests on the roster are publishers and don't count.
func (r *Room) Sample(ctx context.Context) (metrics.Delta, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := r.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: r.name})
	if err != nil {
		return nil, err
	}
	viewers := 0
	for _, p := range resp.GetParticipants() {
		if !isPublisher(p) {
			viewers++
		}
	}
	return func(m *entity.Metrics) { m.LiveViewers = viewers }, nil
}

// GuestToken mints a LiveKit join token for a studio guest.
func (r *Room) GuestToken(ctx context.Context, identity, name string) (string, error) {
	at := auth.NewAccessToken(r.apiKey, r.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     r.name,
	}
	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(guestTokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		r.logger.WithCtx(ctx).Error().Err(err).Msg("Error occured during minting of livekit guest token")
		return "", errors.InternalServerError("")
	}
	return token, nil
}
