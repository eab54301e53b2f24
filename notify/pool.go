package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

// PoolConfig sizes the asynchronous publisher.
type PoolConfig struct {
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
	HandoffTimeout time.Duration
}

// DefaultPoolConfig matches the server defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Workers: 4, Buffer: 256, PublishTimeout: 30 * time.Second, HandoffTimeout: 15 * time.Millisecond}
}

// Pool publishes board events from a fixed set of workers so request
// handlers never wait on downstream sinks. When the buffer is full the
// caller publishes inline.
type Pool struct {
	sink   Publisher
	log    *log.Logger
	cfg    PoolConfig
	jobs   chan domain.BoardEvent
	wg     sync.WaitGroup
	closed sync.Once
}

// NewPool starts cfg.Workers goroutines delivering to sink.
func NewPool(sink Publisher, cfg PoolConfig, logger *log.Logger) *Pool {
	if logger == nil {
		panic("Logger is not initialized")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	p := &Pool{sink: sink, log: logger, cfg: cfg, jobs: make(chan domain.BoardEvent, cfg.Buffer)}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Infof("event publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", cfg.Workers, cfg.Buffer, cfg.PublishTimeout, cfg.HandoffTimeout)
	return p
}

// Publish hands ev to a worker, or delivers it inline when the pool is
// saturated or closed. Only inline failures are returned.
func (p *Pool) Publish(ctx context.Context, ev domain.BoardEvent) error {
	if p.tryEnqueue(ev) {
		return nil
	}
	p.log.Warn("publish buffer saturated; processing inline")

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.PublishTimeout)
	defer cancel()
	return p.sink.Publish(pubCtx, ev)
}

// Close stops accepting events and waits for queued ones to drain.
func (p *Pool) Close() {
	p.closed.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for ev := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
		err := p.sink.Publish(ctx, ev)
		cancel()

		if err != nil {
			p.log.WithFields(log.Fields{
				"event":  ev.Type,
				"board":  ev.BoardID,
				"entity": ev.EntityID,
				"worker": id,
			}).Errorf("publish failed: %v", err)
		}
	}
}

func (p *Pool) tryEnqueue(ev domain.BoardEvent) bool {
	if ok, closed := trySendNonBlocking(p.jobs, ev); closed {
		return false
	} else if ok {
		return true
	}

	if p.cfg.HandoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(p.cfg.HandoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(p.jobs, ev, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking[T any](ch chan T, v T) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- v:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer[T any](ch chan T, v T, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- v:
		return true, false
	case <-timer:
		return false, false
	}
}
