// Package projector turns the board event queue into the activity table.
package projector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
	"kanban-board/notify"
	"kanban-board/storage"
)

// ErrStaleEvent is returned for events that are not newer than the last
// one projected for the same entity.
var ErrStaleEvent = errors.New("stale event")

var errMalformed = errors.New("malformed board event")

// Source yields queued events and acknowledges them once handled.
type Source interface {
	Dequeue(ctx context.Context) (*notify.Message, error)
	Delete(ctx context.Context, m *notify.Message) error
}

// Sink stores projected events and the per-entity cursors.
type Sink interface {
	Append(ctx context.Context, ev domain.BoardEvent) error
	Cursor(ctx context.Context, boardID, entityID string) (*storage.Cursor, error)
	SaveCursor(ctx context.Context, c storage.Cursor) error
}

// Projector is a single queue consumer.
type Projector struct {
	src  Source
	sink Sink
	poll time.Duration
	log  *log.Logger
}

// New returns a projector that waits poll between empty dequeues.
func New(src Source, sink Sink, poll time.Duration, logger *log.Logger) *Projector {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if poll <= 0 {
		poll = time.Second
	}
	return &Projector{src: src, sink: sink, poll: poll, log: logger}
}

// Run consumes the queue until ctx ends.
func (p *Projector) Run(ctx context.Context) error {
	p.log.Info("activity projector started")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg, err := p.src.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.WithError(err).Error("dequeue board event")
			}
			p.wait(ctx)
			continue
		}
		if msg == nil {
			p.wait(ctx)
			continue
		}
		p.Handle(ctx, msg)
	}
}

func (p *Projector) wait(ctx context.Context) {
	t := time.NewTimer(p.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Handle projects one message. Messages that can never succeed are deleted;
// transient failures leave the message for redelivery.
func (p *Projector) Handle(ctx context.Context, msg *notify.Message) {
	entry := p.log.WithField("message", msg.ID)
	ev, err := decode(msg.Text)
	if err == nil {
		entry = entry.WithFields(log.Fields{"board": ev.BoardID, "entity": ev.EntityID, "type": ev.Type, "ts": ev.Timestamp})
		err = p.Apply(ctx, ev)
	}
	switch {
	case err == nil:
	case errors.Is(err, errMalformed):
		entry.WithError(err).Error("dropping board event")
	case errors.Is(err, ErrStaleEvent):
		entry.Warn("stale board event")
	default:
		entry.WithError(err).Error("project board event")
		return
	}
	if err := p.src.Delete(ctx, msg); err != nil {
		entry.WithError(err).Error("delete board event")
	}
}

func decode(text string) (domain.BoardEvent, error) {
	var ev domain.BoardEvent
	if err := sonic.UnmarshalString(text, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if ev.ID == "" || ev.BoardID == "" || ev.EntityID == "" || ev.Type == "" {
		return ev, fmt.Errorf("%w: missing id, board, entity or type", errMalformed)
	}
	return ev, nil
}

// Apply routes ev by entity kind. Unknown kinds are ignored.
func (p *Projector) Apply(ctx context.Context, ev domain.BoardEvent) error {
	switch ev.EntityKind {
	case domain.KindBoard, domain.KindColumn, domain.KindTask:
	default:
		p.log.WithFields(log.Fields{"kind": ev.EntityKind, "type": ev.Type}).Debug("ignoring board event")
		return nil
	}

	cur, err := p.sink.Cursor(ctx, ev.BoardID, ev.EntityID)
	if err != nil {
		return err
	}
	if cur != nil && ev.Timestamp <= cur.Timestamp {
		return ErrStaleEvent
	}
	if err := p.sink.Append(ctx, ev); err != nil {
		return err
	}
	return p.advance(ctx, ev, cur)
}

// advance moves the entity cursor to ev, retrying lost races until the
// stored cursor is at least as new as ev.
func (p *Projector) advance(ctx context.Context, ev domain.BoardEvent, cur *storage.Cursor) error {
	for {
		next := storage.Cursor{BoardID: ev.BoardID, EntityID: ev.EntityID, Timestamp: ev.Timestamp}
		if cur != nil {
			next.ETag = cur.ETag
		}
		err := p.sink.SaveCursor(ctx, next)
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		cur, err = p.sink.Cursor(ctx, ev.BoardID, ev.EntityID)
		if err != nil {
			return err
		}
		if cur != nil && cur.Timestamp >= ev.Timestamp {
			return nil
		}
	}
}
