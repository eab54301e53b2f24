package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-board/api"
	"kanban-board/config"
	"kanban-board/notify"
	"kanban-board/storage"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer base.Close()

	deps := api.Deps{Store: base, Log: logger}
	broker := notify.NewBroker()
	deps.Broker = broker
	sinks := notify.Fanout{broker}

	if cfg.RedisConnectionString != "" {
		rc := redis.NewClient(config.RedisOptions(cfg.RedisConnectionString))
		defer rc.Close()
		deps.Store = storage.NewCache(base, rc, cfg.BoardCacheTTL)
		deps.Deduper = api.NewRedisDeduper(rc, cfg.IdempotencyTTL)
		sinks = append(sinks, notify.NewRedisPublisher(rc, cfg.RedisEventsChannel))
		go func() {
			if err := notify.Relay(ctx, rc, cfg.RedisEventsChannel, broker); err != nil {
				logger.WithError(err).Error("redis relay stopped")
			}
		}()
		logger.Info("redis cache, idempotency and relay enabled")
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("kanban-api"), nats.MaxReconnects(-1))
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer nc.Close()
		sinks = append(sinks, notify.NewNATSPublisher(nc))
		logger.Info("nats change notifications enabled")
	}

	if cfg.StorageConnectionString != "" {
		queue, err := notify.NewQueue(cfg.StorageConnectionString, cfg.BoardEventsQueue)
		if err != nil {
			log.Fatalf("queue: %v", err)
		}
		activity, err := storage.NewActivityLog(cfg.StorageConnectionString, cfg.ActivityTable)
		if err != nil {
			log.Fatalf("activity table: %v", err)
		}
		sinks = append(sinks, queue)
		deps.Activity = activity
		logger.Info("activity queue and table enabled")
	}

	pool := notify.NewPool(sinks, notify.PoolConfig{
		Workers:        cfg.PublishWorkers,
		Buffer:         cfg.PublishBuffer,
		PublishTimeout: cfg.PublishTimeout,
		HandoffTimeout: cfg.PublishHandoffTimeout,
	}, logger)
	defer pool.Close()
	deps.Events = pool

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{RefreshInterval: time.Hour, RefreshUnknownKID: true})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		defer jwks.EndBackground()
		deps.Auth = api.NewJWKSAuth(jwks, cfg.AuthAudience, cfg.AuthIssuer)
	} else {
		auth := api.NewAuth([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.AuthAudience, cfg.AuthIssuer)
		deps.Auth = auth
		deps.Issuer = auth
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	api.Register(e, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.Infof("kanban api listening on %s", cfg.ListenAddr)
	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
