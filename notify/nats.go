package notify

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"

	"kanban-board/domain"
)

const subjectPrefix = "kanban.boards."

// Subject returns the NATS subject carrying events for boardID.
func Subject(boardID string) string {
	return subjectPrefix + boardID
}

// NATSPublisher publishes board events on per-board subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(_ context.Context, ev domain.BoardEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(ev.BoardID), data)
}

// WatchBoard subscribes to change events for boardID and turns them into
// coalesced signals. Malformed payloads still signal since any traffic on
// the subject means the board changed.
func WatchBoard(conn *nats.Conn, boardID string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	sub, err := conn.Subscribe(Subject(boardID), func(*nats.Msg) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, func() { _ = sub.Unsubscribe() }, nil
}
