package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"kanban-board/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "kanban.db"
	}
	st, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("sqlite schema: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Fatalf("close sqlite: %v", err)
	}
	log.WithField("path", dbPath).Info("sqlite schema ready")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Info("no STORAGE_CONNECTION_STRING; skipping activity table and queue")
		return
	}

	ctx := context.Background()
	if err := createTables(ctx, connStr, []string{os.Getenv("ACTIVITY_TABLE")}); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if err := createQueues(ctx, connStr, []string{os.Getenv("BOARD_EVENTS_QUEUE")}); err != nil {
		log.Fatalf("create queues: %v", err)
	}
	log.Info("storage init complete")
}

func createTables(ctx context.Context, connStr string, names []string) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		_, err := svc.NewClient(name).CreateTable(ctx, nil)
		var respErr *azcore.ResponseError
		if err != nil && !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return err
		}
		log.WithField("table", name).Info("table ready")
	}
	return nil
}

func createQueues(ctx context.Context, connStr string, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		_, err = q.Create(ctx, nil)
		var respErr *azcore.ResponseError
		if err != nil && !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return err
		}
		log.WithField("queue", name).Info("queue ready")
	}
	return nil
}
