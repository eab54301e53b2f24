// Package config reads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server holds the settings of the kanban API process.
type Server struct {
	Debug        bool
	ListenAddr   string
	DatabasePath string

	JWTSecret    string
	JWTTTL       time.Duration
	JWKSURL      string
	AuthAudience string
	AuthIssuer   string

	RedisConnectionString string
	RedisEventsChannel    string
	BoardCacheTTL         time.Duration
	IdempotencyTTL        time.Duration

	NATSURL string

	StorageConnectionString string
	BoardEventsQueue        string
	ActivityTable           string

	PublishWorkers        int
	PublishBuffer         int
	PublishTimeout        time.Duration
	PublishHandoffTimeout time.Duration
}

// Projector holds the settings of the activity projector process.
type Projector struct {
	Debug                   bool
	StorageConnectionString string
	BoardEventsQueue        string
	ActivityTable           string
	PollInterval            time.Duration
}

// LoadServer reads and validates the API configuration.
func LoadServer() (Server, error) {
	var (
		cfg Server
		err error
	)
	cfg.Debug = envBool("DEBUG")
	cfg.ListenAddr = envString("LISTEN_ADDR", ":8080")
	cfg.DatabasePath = envString("DATABASE_PATH", "kanban.db")

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWKSURL = os.Getenv("AUTH_JWKS_URL")
	cfg.AuthAudience = os.Getenv("AUTH_AUDIENCE")
	cfg.AuthIssuer = os.Getenv("AUTH_ISSUER")
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		return cfg, errors.New("missing auth config: set JWT_SECRET or AUTH_JWKS_URL")
	}
	if cfg.JWTTTL, err = envDur("JWT_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}

	cfg.RedisConnectionString = os.Getenv("REDIS_CONNECTION_STRING")
	cfg.RedisEventsChannel = envString("REDIS_EVENTS_CHANNEL", "kanban-board-events")
	if cfg.BoardCacheTTL, err = envDur("BOARD_CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.IdempotencyTTL, err = envDur("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}

	cfg.NATSURL = os.Getenv("NATS_URL")

	cfg.StorageConnectionString = os.Getenv("STORAGE_CONNECTION_STRING")
	cfg.BoardEventsQueue = os.Getenv("BOARD_EVENTS_QUEUE")
	cfg.ActivityTable = os.Getenv("ACTIVITY_TABLE")
	if cfg.StorageConnectionString != "" && (cfg.BoardEventsQueue == "" || cfg.ActivityTable == "") {
		return cfg, errors.New("missing storage config: BOARD_EVENTS_QUEUE and ACTIVITY_TABLE are required with STORAGE_CONNECTION_STRING")
	}

	if cfg.PublishWorkers, err = envInt("PUBLISH_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.PublishBuffer, err = envInt("PUBLISH_BUFFER", 256); err != nil {
		return cfg, err
	}
	if cfg.PublishTimeout, err = envDur("PUBLISH_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.PublishHandoffTimeout, err = envDur("PUBLISH_HANDOFF_TIMEOUT", 15*time.Millisecond); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadProjector reads and validates the projector configuration.
func LoadProjector() (Projector, error) {
	var (
		cfg Projector
		err error
	)
	cfg.Debug = envBool("DEBUG")
	cfg.StorageConnectionString = os.Getenv("STORAGE_CONNECTION_STRING")
	cfg.BoardEventsQueue = os.Getenv("BOARD_EVENTS_QUEUE")
	cfg.ActivityTable = os.Getenv("ACTIVITY_TABLE")
	if cfg.StorageConnectionString == "" || cfg.BoardEventsQueue == "" || cfg.ActivityTable == "" {
		return cfg, errors.New("missing storage config")
	}
	if cfg.PollInterval, err = envDur("POLL_INTERVAL", time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
