package notify

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"kanban-board/domain"
)

func runNATS(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Port: -1, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("create embedded NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server failed to start")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	conn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect to embedded NATS: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func TestNATSPublisherUsesBoardSubject(t *testing.T) {
	conn := runNATS(t)

	sub, err := conn.SubscribeSync(Subject("b1"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ev := domain.BoardEvent{ID: "e1", BoardID: "b1", Type: domain.TaskMoved, EntityID: "t1"}
	if err := NewNATSPublisher(conn).Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("next msg: %v", err)
	}
	var got domain.BoardEvent
	if err := sonic.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "e1" || got.Type != domain.TaskMoved || msg.Subject != "kanban.boards.b1" {
		t.Fatalf("unexpected message %s %+v", msg.Subject, got)
	}
}

func TestWatchBoardSignals(t *testing.T) {
	conn := runNATS(t)

	signals, stop, err := WatchBoard(conn, "b1")
	if err != nil {
		t.Fatalf("WatchBoard: %v", err)
	}
	defer stop()
	if err := conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	pub := NewNATSPublisher(conn)
	_ = pub.Publish(context.Background(), domain.BoardEvent{BoardID: "b2"})
	_ = pub.Publish(context.Background(), domain.BoardEvent{BoardID: "b1"})

	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatal("no signal for b1")
	}
	select {
	case <-signals:
		t.Fatal("unexpected extra signal")
	case <-time.After(50 * time.Millisecond):
	}
}
