package boardsync

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban-board/reorder"
)

// Sender delivers one position update to the backend.
type Sender interface {
	UpdatePosition(ctx context.Context, ins reorder.Instruction) error
}

// DispatcherConfig tunes delivery of persistence instructions.
type DispatcherConfig struct {
	Workers    int
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
	Timeout    time.Duration
}

// DefaultDispatcherConfig retries a failed update twice with exponential
// backoff before reporting a fault.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 2, Attempts: 3, Backoff: 100 * time.Millisecond, MaxBackoff: 2 * time.Second, Timeout: 10 * time.Second}
}

// Dispatcher delivers instructions in the background. Instructions for the
// same entity are delivered in submission order; different entities may be
// delivered concurrently. A fault is logged and reported through OnFault;
// nothing is rolled back.
type Dispatcher struct {
	sender  Sender
	cfg     DispatcherConfig
	log     *log.Logger
	onFault func(reorder.Instruction, error)

	shards []*shard
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending int
	idle    chan struct{}
	closed  bool
}

type shard struct {
	mu     sync.Mutex
	queue  []reorder.Instruction
	signal chan struct{}
}

// NewDispatcher starts cfg.Workers delivery goroutines.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if logger == nil {
		panic("Logger is not initialized")
	}
	def := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.MaxBackoff < cfg.Backoff {
		cfg.MaxBackoff = cfg.Backoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	ctx, stop := context.WithCancel(context.Background())
	d := &Dispatcher{sender: sender, cfg: cfg, log: logger, ctx: ctx, stop: stop}
	d.shards = make([]*shard, cfg.Workers)
	for i := range d.shards {
		d.shards[i] = &shard{signal: make(chan struct{}, 1)}
		d.wg.Add(1)
		go d.worker(d.shards[i])
	}
	return d
}

// OnFault registers fn to be called, from a worker goroutine, for every
// instruction that could not be delivered.
func (d *Dispatcher) OnFault(fn func(reorder.Instruction, error)) {
	d.mu.Lock()
	d.onFault = fn
	d.mu.Unlock()
}

// Submit queues ins and returns immediately. It reports false once the
// dispatcher is closed.
func (d *Dispatcher) Submit(ins reorder.Instruction) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.WithFields(log.Fields{"kind": ins.Kind, "entity": ins.EntityID}).Warn("dispatcher closed; dropping position update")
		return false
	}
	if d.pending == 0 {
		d.idle = make(chan struct{})
	}
	d.pending++
	// The append happens before unlocking so Close cannot slip in between the
	// count and the enqueue.
	s := d.shardFor(ins)
	s.mu.Lock()
	s.queue = append(s.queue, ins)
	s.mu.Unlock()
	d.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of instructions not yet delivered or failed.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush blocks until every submitted instruction was delivered or failed.
func (d *Dispatcher) Flush(ctx context.Context) error {
	for {
		d.mu.Lock()
		if d.pending == 0 {
			d.mu.Unlock()
			return nil
		}
		idle := d.idle
		d.mu.Unlock()
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the workers. Instructions still queued are drained against a
// cancelled context, so they usually fail with context.Canceled; call Flush
// first to wait for them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.stop()
	d.wg.Wait()
}

func (d *Dispatcher) shardFor(ins reorder.Instruction) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ins.Kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(ins.EntityID))
	return d.shards[int(h.Sum32()%uint32(len(d.shards)))]
}

func (d *Dispatcher) worker(s *shard) {
	defer d.wg.Done()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-d.ctx.Done():
				if s.drained() {
					return
				}
			case <-s.signal:
			}
			continue
		}
		ins := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := d.deliver(ins); err != nil {
			d.fault(ins, err)
		}
		d.done()
	}
}

func (s *shard) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0
}

func (d *Dispatcher) deliver(ins reorder.Instruction) error {
	backoff := d.cfg.Backoff
	var err error
	for attempt := 1; attempt <= d.cfg.Attempts; attempt++ {
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
		err = d.sender.UpdatePosition(ctx, ins)
		cancel()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == d.cfg.Attempts {
			break
		}
		d.log.WithFields(log.Fields{
			"kind":    ins.Kind,
			"entity":  ins.EntityID,
			"attempt": attempt,
			"error":   err,
		}).Debug("position update failed; retrying")
		select {
		case <-time.After(backoff):
		case <-d.ctx.Done():
			return d.ctx.Err()
		}
		backoff = min(backoff*2, d.cfg.MaxBackoff)
	}
	return err
}

func (d *Dispatcher) fault(ins reorder.Instruction, err error) {
	d.log.WithFields(log.Fields{
		"kind":      ins.Kind,
		"entity":    ins.EntityID,
		"container": ins.ContainerID,
		"position":  ins.Position,
		"error":     err,
	}).Error("position update failed; local order kept until next refresh")
	d.mu.Lock()
	fn := d.onFault
	d.mu.Unlock()
	if fn != nil {
		fn(ins, err)
	}
}

func (d *Dispatcher) done() {
	d.mu.Lock()
	d.pending--
	if d.pending == 0 && d.idle != nil {
		close(d.idle)
		d.idle = nil
	}
	d.mu.Unlock()
}

// retryable reports whether err may succeed on a later attempt. Errors that
// declare themselves non-retryable, such as 4xx API responses, stop at once.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
