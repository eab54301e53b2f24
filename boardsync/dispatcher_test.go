package boardsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"kanban-board/reorder"
)

type fakeSender struct {
	mu       sync.Mutex
	got      []reorder.Instruction
	failures int
	err      error
	calls    atomic.Int32
	block    chan struct{}
}

func (f *fakeSender) UpdatePosition(ctx context.Context, ins reorder.Instruction) error {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	f.got = append(f.got, ins)
	return nil
}

func (f *fakeSender) delivered() []reorder.Instruction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reorder.Instruction(nil), f.got...)
}

type permanentErr struct{}

func (permanentErr) Error() string   { return "bad request" }
func (permanentErr) Retryable() bool { return false }

func fastConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 4, Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond, Timeout: time.Second}
}

func newTestDispatcher(t *testing.T, s Sender) (*Dispatcher, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(s, fastConfig(), logger)
	t.Cleanup(d.Close)
	return d, hook
}

func flush(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestDispatcherDelivers(t *testing.T) {
	s := &fakeSender{}
	d, _ := newTestDispatcher(t, s)

	ins := reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1", ContainerID: "c2", Position: 0}
	if !d.Submit(ins) {
		t.Fatal("submit rejected")
	}
	flush(t, d)
	if got := s.delivered(); len(got) != 1 || got[0] != ins {
		t.Fatalf("unexpected deliveries %+v", got)
	}
	if d.Pending() != 0 {
		t.Fatalf("expected nothing pending, got %d", d.Pending())
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	s := &fakeSender{failures: 2, err: errors.New("connection reset")}
	d, _ := newTestDispatcher(t, s)
	var faults atomic.Int32
	d.OnFault(func(reorder.Instruction, error) { faults.Add(1) })

	d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1", Position: 2})
	flush(t, d)

	if s.calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", s.calls.Load())
	}
	if len(s.delivered()) != 1 || faults.Load() != 0 {
		t.Fatalf("expected eventual success without fault, delivered=%d faults=%d", len(s.delivered()), faults.Load())
	}
}

func TestDispatcherReportsFaultAfterAttempts(t *testing.T) {
	s := &fakeSender{failures: 10, err: errors.New("service unavailable")}
	d, hook := newTestDispatcher(t, s)
	faulted := make(chan reorder.Instruction, 1)
	d.OnFault(func(ins reorder.Instruction, err error) { faulted <- ins })

	ins := reorder.Instruction{Kind: reorder.KindColumn, EntityID: "c1", Position: 1}
	d.Submit(ins)
	flush(t, d)

	select {
	case got := <-faulted:
		if got != ins {
			t.Fatalf("unexpected faulted instruction %+v", got)
		}
	default:
		t.Fatal("expected fault callback")
	}
	if s.calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", s.calls.Load())
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.ErrorLevel || entry.Data["entity"] != "c1" {
		t.Fatalf("expected error log for c1, got %+v", entry)
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	s := &fakeSender{failures: 10, err: permanentErr{}}
	d, _ := newTestDispatcher(t, s)
	var faults atomic.Int32
	d.OnFault(func(reorder.Instruction, error) { faults.Add(1) })

	d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1"})
	flush(t, d)
	if s.calls.Load() != 1 || faults.Load() != 1 {
		t.Fatalf("expected a single attempt and fault, calls=%d faults=%d", s.calls.Load(), faults.Load())
	}
}

func TestDispatcherKeepsPerEntityOrder(t *testing.T) {
	s := &fakeSender{}
	d, _ := newTestDispatcher(t, s)

	for i := 0; i < 50; i++ {
		d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1", Position: i})
		d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t2", Position: i})
	}
	flush(t, d)

	next := map[string]int{}
	for _, ins := range s.delivered() {
		if ins.Position != next[ins.EntityID] {
			t.Fatalf("entity %s delivered position %d, want %d", ins.EntityID, ins.Position, next[ins.EntityID])
		}
		next[ins.EntityID]++
	}
	if next["t1"] != 50 || next["t2"] != 50 {
		t.Fatalf("missing deliveries: %v", next)
	}
}

func TestDispatcherSubmitNeverBlocks(t *testing.T) {
	s := &fakeSender{block: make(chan struct{})}
	d, _ := newTestDispatcher(t, s)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1", Position: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked on a stalled sender")
	}
	if d.Pending() != 100 {
		t.Fatalf("expected 100 pending, got %d", d.Pending())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected flush deadline, got %v", err)
	}
	close(s.block)
	flush(t, d)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(&fakeSender{}, fastConfig(), logger)
	d.Close()

	if d.Submit(reorder.Instruction{Kind: reorder.KindTask, EntityID: "t1"}) {
		t.Fatal("expected submit to be rejected after close")
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != log.WarnLevel {
		t.Fatalf("expected warning, got %+v", entry)
	}
}

func TestDispatcherSettlesSubmitsRacingClose(t *testing.T) {
	for round := 0; round < 50; round++ {
		s := &fakeSender{}
		logger, _ := test.NewNullLogger()
		d := NewDispatcher(s, fastConfig(), logger)

		var accepted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					ins := reorder.Instruction{Kind: reorder.KindTask, EntityID: fmt.Sprintf("t%d-%d", i, j)}
					if d.Submit(ins) {
						accepted.Add(1)
					}
				}
			}(i)
		}
		d.Close()
		wg.Wait()

		flush(t, d)
		if got := len(s.delivered()); got != int(accepted.Load()) {
			t.Fatalf("round %d: accepted %d instructions, delivered %d", round, accepted.Load(), got)
		}
		if d.Pending() != 0 {
			t.Fatalf("round %d: %d instructions still pending", round, d.Pending())
		}
	}
}

func TestRetryable(t *testing.T) {
	if retryable(context.Canceled) {
		t.Fatal("cancellation must not be retried")
	}
	if retryable(permanentErr{}) {
		t.Fatal("permanent error must not be retried")
	}
	if !retryable(errors.New("dial tcp: connection refused")) {
		t.Fatal("plain errors are retried")
	}
}
