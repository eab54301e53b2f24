// Package boardsync owns the in-memory board of a client. It applies drag
// gestures optimistically through the reorder engine and persists the
// resulting instruction in the background.
package boardsync

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
	"kanban-board/reorder"
)

// Fetcher loads the authoritative board tree.
type Fetcher interface {
	FetchBoard(ctx context.Context, boardID string) (domain.Board, error)
}

// Board is the single writer of one board's local state. All methods are
// safe for concurrent use; gesture callbacks never wait on the network.
type Board struct {
	id       string
	remote   Fetcher
	dispatch *Dispatcher
	log      *log.Logger

	mu       sync.Mutex
	board    domain.Board
	loaded   bool
	gesture  reorder.Gesture
	onChange func(domain.Board)
}

// New returns an unloaded board. dispatch may be nil for a read-only view.
func New(boardID string, remote Fetcher, dispatch *Dispatcher, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Board{id: boardID, remote: remote, dispatch: dispatch, log: logger}
}

// ID returns the board id.
func (b *Board) ID() string { return b.id }

// OnChange registers fn to receive every committed local state. fn runs on
// the goroutine that caused the change, outside the board lock.
func (b *Board) OnChange(fn func(domain.Board)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Load fetches the board and replaces the local state.
func (b *Board) Load(ctx context.Context) error {
	return b.Refresh(ctx)
}

// Refresh reconciles with the backend by replacing the local tree with the
// authoritative one. An in-flight gesture is left untouched.
func (b *Board) Refresh(ctx context.Context) error {
	fresh, err := b.remote.FetchBoard(ctx, b.id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.board = fresh
	b.loaded = true
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn(fresh)
	}
	return nil
}

// Snapshot returns the current board. The returned value shares structure
// with the board's state and must be treated as read-only.
func (b *Board) Snapshot() (domain.Board, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.board, b.loaded
}

// Gesture returns the drag indicator state.
func (b *Board) Gesture() reorder.GestureState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture.State()
}

// DragStart begins a gesture for src.
func (b *Board) DragStart(src reorder.DragSource) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture.Start(src)
}

// DragOver records the targets under the pointer, innermost first.
func (b *Board) DragOver(targets []reorder.DropTarget) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture.Over(targets)
}

// DragLeave clears the hovered targets.
func (b *Board) DragLeave() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture.Leave()
}

// Cancel abandons the gesture without touching the board.
func (b *Board) Cancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gesture.Cancel()
}

// Drop ends the gesture. When it resolves to an effective move the new
// order is committed locally and the instruction is queued for delivery.
func (b *Board) Drop() (reorder.Instruction, bool) {
	b.mu.Lock()
	m, ok := b.gesture.Drop()
	if !ok {
		b.mu.Unlock()
		return reorder.Instruction{}, false
	}
	return b.commitLocked(m)
}

// Apply runs m directly, bypassing the gesture state machine.
func (b *Board) Apply(m reorder.Move) (reorder.Instruction, bool) {
	b.mu.Lock()
	return b.commitLocked(m)
}

// commitLocked applies m and releases b.mu.
func (b *Board) commitLocked(m reorder.Move) (reorder.Instruction, bool) {
	if !b.loaded {
		b.mu.Unlock()
		return reorder.Instruction{}, false
	}
	next, ins, ok := reorder.Apply(b.board, m)
	if !ok {
		b.mu.Unlock()
		b.log.WithFields(log.Fields{"kind": m.Kind, "item": m.ItemID, "target": m.TargetItemID}).Debug("drop ignored")
		return reorder.Instruction{}, false
	}
	b.board = next
	fn := b.onChange
	b.mu.Unlock()

	if b.dispatch != nil {
		b.dispatch.Submit(ins)
	}
	if fn != nil {
		fn(next)
	}
	return ins, true
}

// Watch refreshes the board every interval and whenever signals fires,
// until ctx ends. Either trigger may be disabled with a zero interval or a
// nil channel. Refreshes are skipped while local updates are still being
// delivered so an older server state does not overwrite them.
func (b *Board) Watch(ctx context.Context, interval time.Duration, signals <-chan struct{}) error {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case _, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
		}
		if b.dispatch != nil && b.dispatch.Pending() > 0 {
			continue
		}
		if err := b.Refresh(ctx); err != nil && ctx.Err() == nil {
			b.log.WithError(err).WithField("board", b.id).Warn("refresh board")
		}
	}
}
