package media

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/log"
	"Studio/pkg/validations"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
)

// Roster is what participant webhooks drive.
type Roster interface {
	HasGuest(id string) bool
	AddGuest(ctx context.Context, actor string, guest entity.Guest) []entity.Guest
	RemoveGuest(ctx context.Context, actor, id string) bool
}

// Actor recorded on chronicle entries caused by LiveKit.
const webhookActor = "livekit"

// WebhookHandler turns participant notifications for room into roster changes.
// Only publishers become guests: a participant joins the roster when it joins with publish
// permission or publishes a track, and leaves it on participant_left.
// Requests are verified against the LiveKit API key pair.
func WebhookHandler(roster Roster, apiKey, apiSecret, room string, logger log.Logger) gin.HandlerFunc {
	provider := auth.NewSimpleKeyProvider(apiKey, apiSecret)
	return func(gctx *gin.Context) {
		ctx := gctx.Request.Context()
		event, err := webhook.ReceiveWebhookEvent(gctx.Request, provider)
		if err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Msg("Rejected livekit webhook")
			gctx.JSON(http.StatusUnauthorized, errors.Unauthorized("Webhook signature couldn't be verified."))
			return
		}
		if room != "" && event.GetRoom().GetName() != room {
			gctx.Status(http.StatusNoContent)
			return
		}

		participant := event.GetParticipant()
		if participant.GetIdentity() == "" {
			logger.WithCtx(ctx).Debug().Str("event", event.GetEvent()).Msg("Ignoring livekit webhook without participant")
			gctx.Status(http.StatusNoContent)
			return
		}
		switch event.GetEvent() {
		case "participant_joined", "track_published":
			if !isPublisher(participant) || roster.HasGuest(participant.GetIdentity()) {
				break
			}
			guest := guestOf(participant)
			if errs := validations.ValidateStruct(guest); errs != nil {
				logger.WithCtx(ctx).Warn().Errs("errors", errs).Str("identity", guest.ID).Msg("Rejected livekit participant as guest")
				break
			}
			roster.AddGuest(ctx, webhookActor, guest)
		case "participant_left":
			roster.RemoveGuest(ctx, webhookActor, participant.GetIdentity())
		default:
			logger.WithCtx(ctx).Debug().Str("event", event.GetEvent()).Msg("Ignoring livekit webhook")
		}
		gctx.Status(http.StatusNoContent)
	}
}

func guestOf(p *livekit.ParticipantInfo) entity.Guest {
	name := p.GetName()
	if name == "" {
		name = p.GetIdentity()
	}
	return entity.Guest{ID: p.GetIdentity(), Name: name, ConnectionQuality: 1}
}

// isPublisher reports whether p sends media into the room, as guests do.
func isPublisher(p *livekit.ParticipantInfo) bool {
	return p.GetPermission().GetCanPublish() || len(p.GetTracks()) > 0
}
