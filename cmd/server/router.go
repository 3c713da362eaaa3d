// List of all endpoints being served by the command centre can be found here.

package main

import (
	"Studio/internal/auth"
	"Studio/internal/command"
	"Studio/internal/config"
	"Studio/internal/console"
	"Studio/internal/media"
	"Studio/pkg/log"
	"Studio/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Router(server *gin.Engine, cfg config.Config, svc *console.Service, gate *auth.Gate, router *command.Router, registry *prometheus.Registry, logger log.Logger) {
	server.Use(middlewares.CORSMiddleware(cfg.CORSOrigin))
	server.Use(middlewares.CorrelationMiddleware())

	// This is the route to default path
	server.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the command centre!")
	})
	server.GET("/debug/prometheus", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	console.ConsoleHandlers(server, svc, auth.AuthMiddleware(gate, logger), logger)
	console.SocketHandlers(server, svc, logger)

	if cfg.LiveKit.Enabled() && cfg.LiveKit.Webhook {
		server.POST("/webhooks/livekit", media.WebhookHandler(router, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.Room, logger))
	}
}
