package console

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/internal/hub"
	"Studio/pkg/log"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware and the access gate
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Registers the websocket endpoint of every channel onto the gin server.
func SocketHandlers(router *gin.Engine, svc *Service, logger log.Logger) {
	router.GET("/ws/:channel", channelSocket(svc, logger))
}

func isChannel(channel string) bool {
	switch channel {
	case entity.ChannelControl, entity.ChannelStudio, entity.ChannelOverlay:
		return true
	}
	return false
}

// channelSocket upgrades the request, admits the principal through the gate and then serves
// the connection until it goes away. A rejected credential gets connect_error and a close,
// never a replay.
func channelSocket(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		channel := gctx.Param("channel")
		if !isChannel(channel) {
			gctx.JSON(http.StatusNotFound, errors.NotFound("Unknown channel."))
			return
		}

		conn, err := upgrader.Upgrade(gctx.Writer, gctx.Request, nil)
		if err != nil {
			// Upgrade already replied to the client
			logger.WithCtx(gctx).Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}

		principal, err := svc.gate.Authenticate(gctx, auth.BearerToken(gctx))
		if err != nil {
			resp := errors.AsResponse(err)
			logger.WithCtx(gctx).Warn().Str("channel", channel).Str("error", resp.Code).Msg("Connection rejected by access gate")
			_ = conn.WriteJSON(entity.Event{Name: entity.EventConnectError, Data: gin.H{"error": resp.Code, "message": resp.Message}})
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, resp.Code))
			_ = conn.Close()
			return
		}

		// The request context carries the correlation id set by CorrelationMiddleware
		ctx := gctx.Request.Context()
		client := hub.NewClient(conn, logger)
		go client.WritePump()
		svc.hub.Join(channel, client, principal)
		logger.WithCtx(ctx).Info().Str("channel", channel).Str("principal", principal.ID).Str("conn", client.ID()).Msg("Connection joined")

		client.ReadPump(func(frame entity.Frame) {
			svc.dispatch(ctx, channel, client, principal, frame)
		}, func(error) {
			svc.reply(ctx, client, commandErrorEvent("", errors.InvalidPayload("frame", "frame is malformed")))
		})

		svc.hub.Leave(channel, client)
		client.Close()
		logger.WithCtx(ctx).Info().Str("channel", channel).Str("conn", client.ID()).Msg("Connection left")
	}
}

// dispatch answers queries directly to conn and routes everything else as a command.
// Command failures are reported to the issuer only and never close the connection.
func (s *Service) dispatch(ctx context.Context, channel string, conn hub.Conn, principal entity.Principal, frame entity.Frame) {
	var reply entity.Event
	switch frame.Name {
	case entity.QueryState:
		reply = entity.Event{Name: entity.EventStateSync, Data: s.store.Snapshot()}
	case entity.QueryMetrics:
		reply = entity.Event{Name: entity.EventMetricsUpdate, Data: s.store.Metrics()}
	case entity.QueryChronicle:
		reply = entity.Event{Name: entity.EventChronicleBatch, Data: s.log.List(chronicle.Filter{})}
	case entity.QueryFilter:
		var q chronicleFilterQuery
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &q); err != nil {
				reply = commandErrorEvent(frame.Name, errors.InvalidPayload(frame.Name, "payload is malformed"))
				break
			}
		}
		reply = entity.Event{Name: entity.EventChronicleBatch, Data: s.log.List(chronicle.Filter{Match: q.Filter})}
	default:
		if channel != entity.ChannelControl {
			reply = commandErrorEvent(frame.Name, errors.Forbidden("Commands are only accepted on the control channel."))
			break
		}
		if _, err := s.router.HandleFrame(ctx, principal, frame.Name, frame.Data); err != nil {
			reply = commandErrorEvent(frame.Name, err)
			break
		}
		return
	}
	s.reply(ctx, conn, reply)
}

// reply answers conn alone.
func (s *Service) reply(ctx context.Context, conn hub.Conn, event entity.Event) {
	if err := conn.Send(event); err != nil {
		s.logger.WithCtx(ctx).Debug().Err(err).Str("event", event.Name).Msg("Reply dropped")
	}
}

func commandErrorEvent(name string, err error) entity.Event {
	resp := errors.AsResponse(err)
	return entity.Event{Name: entity.EventCommandError, Data: commandError{Command: name, Error: resp.Code, Message: resp.Message}}
}
