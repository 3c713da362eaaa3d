// Loads up the environment used by the command centre.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Design default cadence of the metrics ticker.
const DefaultMetricsInterval = 2000 * time.Millisecond

type Redis struct {
	Addr     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether presence and chronicle mirroring should be wired.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type LiveKit struct {
	Host      string
	APIKey    string
	APISecret string
	Room      string
	// Accept participant webhooks on /webhooks/livekit
	Webhook bool
}

// Enabled reports whether the LiveKit integrations should be wired.
func (l LiveKit) Enabled() bool {
	return l.Host != "" && l.APIKey != "" && l.APISecret != ""
}

type Config struct {
	Env             string
	Version         string
	SrvAddr         string
	SrvPort         string
	AccessSecret    string
	CORSOrigin      string
	MetricsInterval time.Duration
	Redis           Redis
	LiveKit         LiveKit
}

// Load reads envFile (when present) into the process environment via godotenv,
// then builds a Config from it. Variables already set in the environment win.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Env:        getenv("ENV", "PROD"),
		Version:    getenv("VERSION", "dev"),
		SrvAddr:    os.Getenv("SRV_ADDR"),
		SrvPort:    getenv("SRV_PORT", "8080"),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Port:     getenv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		LiveKit: LiveKit{
			Host:      os.Getenv("LIVEKIT_HOST"),
			APIKey:    os.Getenv("LIVEKIT_API_KEY"),
			APISecret: os.Getenv("LIVEKIT_API_SECRET"),
			Room:      getenv("LIVEKIT_ROOM", "studio"),
		},
	}

	cfg.AccessSecret = os.Getenv("ACCESS_SECRET")
	if cfg.AccessSecret == "" {
		return Config{}, errors.New("ACCESS_SECRET must be set")
	}

	intervalMs, err := getint("METRICS_INTERVAL_MS", int(DefaultMetricsInterval/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	if intervalMs <= 0 {
		return Config{}, fmt.Errorf("METRICS_INTERVAL_MS must be positive, got %d", intervalMs)
	}
	cfg.MetricsInterval = time.Duration(intervalMs) * time.Millisecond

	if cfg.Redis.DB, err = getint("REDIS_DB_NUMBER", 0); err != nil {
		return Config{}, err
	}
	if cfg.LiveKit.Webhook, err = getbool("WEBHOOK_ENABLED", false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address of the http server.
func (c Config) Addr() string {
	return c.SrvAddr + ":" + c.SrvPort
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse ENV: %s: %w", key, err)
	}
	return n, nil
}

func getbool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("couldn't parse ENV: %s: %w", key, err)
	}
	return b, nil
}
