// The main file of the command centre.

package main

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/command"
	"Studio/internal/config"
	"Studio/internal/console"
	"Studio/internal/hub"
	"Studio/internal/media"
	"Studio/internal/metrics"
	"Studio/internal/monitor"
	"Studio/internal/state"
	"Studio/pkg/cleanup"
	"Studio/pkg/db"
	"Studio/pkg/log"
	"Studio/pkg/validations"
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Indicates the current version of the command centre.
var Version = "1.0.0"

func main() {
	logger := log.New(Version)

	envFile := ""
	if os.Getenv("ENV") == "DEV" {
		envFile = "config/dev.env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Couldn't load configuration")
	}

	// This is the preferred mode used by gin server in DEV environment.
	if cfg.Env == "DEV" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info().Str("env", cfg.Env).Msgf("Welcome to the command centre: v%s", Version)

	// Cancelled on shutdown, stops every background worker.
	ctx, cancel := context.WithCancel(context.Background())
	validations.RegisterCustomValidations(ctx, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricCollectors := monitor.New(registry)

	var (
		redisDB      *db.RedisDB
		presenceRepo hub.Repository
		snapshotRepo metrics.Repository
		sinks        []chronicle.Sink
	)
	if cfg.Redis.Enabled() {
		redisDB, err = db.NewDbConnection(ctx, logger, db.Options{Addr: cfg.Redis.Addr, Port: cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			logger.Fatal().Err(err).Msg("Couldn't create redis client")
		}
		// Sending a PING request to DB for connection status check.
		if err := redisDB.CheckDbConnection(ctx, logger); err != nil {
			logger.Fatal().Err(err).Msg("Redis client couldn't PING the redis-server.")
		}
		archiver := chronicle.NewArchiver(chronicle.NewRepository(redisDB), logger)
		go archiver.Listen(ctx)
		sinks = append(sinks, archiver)
		presenceRepo = hub.NewRepository(redisDB)
		snapshotRepo = metrics.NewRepository(redisDB)
	}

	store := state.NewStore(state.DefaultState())
	clog := chronicle.NewLog(sinks...)
	channelHub := hub.NewHub(command.NewReplay(store, clog), presenceRepo, metricCollectors, logger)
	go channelHub.Listen(ctx)
	router := command.NewRouter(store, clog, channelHub, metricCollectors, logger)

	sources := []metrics.Source{metrics.NewSynthetic(0)}
	var room *media.Room
	if cfg.LiveKit.Enabled() {
		room = media.NewRoom(cfg.LiveKit.Host, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.Room, logger)
		sources = append(sources, room)
	}
	ticker := metrics.NewTicker(router, snapshotRepo, logger, sources...).Start(ctx, cfg.MetricsInterval)

	gate := auth.NewGate(cfg.AccessSecret, logger)
	var inviter console.Inviter
	if room != nil {
		inviter = room
	}
	svc := console.NewService(router, store, clog, channelHub, gate, inviter, logger)

	// Initializing the gin server.
	server := gin.New()
	// Forcing gin to use custom Logger instead of the default one.
	server.Use(log.LoggerGinExtension(logger))
	server.Use(gin.Recovery())

	// Running Router() which routes all of the REST API groups and paths.
	Router(server, cfg, svc, gate, router, registry, logger)

	// Running the server with defined addr and port.
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()
	logger.Info().Str("addr", cfg.Addr()).Msg("Command centre is listening")

	// Graceful shutdown of the server triggered due to system interruptions.
	operations := map[string]cleanup.Operation{
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"Ticker": ticker.Shutdown,
		"Hub":    channelHub.Shutdown,
		"Workers": func(ctx context.Context) error {
			cancel()
			return nil
		},
	}
	if redisDB != nil {
		operations["Redis-server"] = redisDB.CloseDbConnection
	}
	wait := cleanup.GracefulShutdown(context.Background(), logger, 5*time.Second, operations)
	<-wait
}
