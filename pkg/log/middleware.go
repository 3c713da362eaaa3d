// This middleware is used to integrate the zerolog extension created in logger.go into gin server.

package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Forces gin to log every request through Logger instead of its default writer.
// Websocket upgrades are logged once the connection closes, with the full session latency.
func LoggerGinExtension(logger Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		start := time.Now()
		path := gctx.Request.URL.Path
		if raw := gctx.Request.URL.RawQuery; raw != "" {
			path = path + "?" + redactToken(gctx)
		}

		// Process request
		gctx.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}

		var event *zerolog.Event
		status := gctx.Writer.Status()
		l := logger.WithCtx(gctx)
		if status >= 500 {
			event = l.Error()
		} else if status >= 400 {
			event = l.Warn()
		} else {
			event = l.Info()
		}
		event.
			Str("client_ip", gctx.ClientIP()).
			Str("method", gctx.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Int("body_size", gctx.Writer.Size()).
			Str("error", gctx.Errors.ByType(gin.ErrorTypePrivate).String()).
			Msg("request handled")
	}
}

// Query strings may carry a handshake token, which must never reach the logs.
func redactToken(gctx *gin.Context) string {
	query := gctx.Request.URL.Query()
	if query.Has("token") {
		query.Set("token", "REDACTED")
	}
	return query.Encode()
}
