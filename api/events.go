package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

var lastTimestamp int64

// nextTimestamp returns a strictly increasing unix-nano timestamp so events
// from one process order correctly even within the same clock tick.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

type change struct {
	boardID  string
	kind     string
	entityID string
	typ      string
	data     any
}

// commit evicts cached reads of every touched board and then publishes one
// event per change. Publish errors are logged and never surface to the
// caller: the write already happened.
func (d Deps) commit(ctx context.Context, userID string, changes ...change) {
	seen := make(map[string]struct{}, len(changes))
	for _, ch := range changes {
		if _, ok := seen[ch.boardID]; ok {
			continue
		}
		seen[ch.boardID] = struct{}{}
		d.Store.InvalidateBoard(ctx, ch.boardID)
	}
	if d.Events == nil {
		return
	}
	for _, ch := range changes {
		ev := domain.BoardEvent{
			ID:         uuid.NewString(),
			BoardID:    ch.boardID,
			UserID:     userID,
			EntityKind: ch.kind,
			EntityID:   ch.entityID,
			Type:       ch.typ,
			Timestamp:  nextTimestamp(),
		}
		if ch.data != nil {
			payload, err := sonic.Marshal(ch.data)
			if err != nil {
				d.Log.WithError(err).WithField("event", ch.typ).Error("marshal event data")
				continue
			}
			ev.Data = payload
		}
		boardEventsTotal.WithLabelValues(ev.Type).Inc()
		if err := d.Events.Publish(ctx, ev); err != nil {
			d.Log.WithFields(log.Fields{
				"event": ev.Type,
				"board": ev.BoardID,
				"error": err,
			}).Error("publish board event")
		}
	}
}
