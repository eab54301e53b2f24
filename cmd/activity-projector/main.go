package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"kanban-board/config"
	"kanban-board/notify"
	"kanban-board/projector"
	"kanban-board/storage"
)

func main() {
	cfg, err := config.LoadProjector()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	queue, err := notify.NewQueue(cfg.StorageConnectionString, cfg.BoardEventsQueue)
	if err != nil {
		log.Fatalf("queue client: %v", err)
	}
	activity, err := storage.NewActivityLog(cfg.StorageConnectionString, cfg.ActivityTable)
	if err != nil {
		log.Fatalf("activity table: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	p := projector.New(queue, activity, cfg.PollInterval, log.StandardLogger())
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	log.Info("activity projector stopped")
}
