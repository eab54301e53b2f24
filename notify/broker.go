package notify

import (
	"context"
	"sync"

	"kanban-board/domain"
)

// Broker signals in-process subscribers, typically SSE streams, that a
// board changed. Signals coalesce: a slow subscriber sees at most one
// pending signal and refetches the board when it catches up.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers interest in boardID. The returned cancel func must be
// called to release the subscription.
func (b *Broker) Subscribe(boardID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.subs[boardID] == nil {
		b.subs[boardID] = make(map[chan struct{}]struct{})
	}
	b.subs[boardID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[boardID], ch)
			if len(b.subs[boardID]) == 0 {
				delete(b.subs, boardID)
			}
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions for boardID.
func (b *Broker) Subscribers(boardID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[boardID])
}

// Notify signals every subscriber of boardID without blocking.
func (b *Broker) Notify(boardID string) {
	b.mu.Lock()
	for ch := range b.subs[boardID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// Publish implements Publisher.
func (b *Broker) Publish(_ context.Context, ev domain.BoardEvent) error {
	b.Notify(ev.BoardID)
	return nil
}
