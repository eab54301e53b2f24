package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"kanban-board/boardsync"
	"kanban-board/domain"
	"kanban-board/reorder"
)

// moveTarget holds the placement flags of the move commands.
type moveTarget struct {
	before string
	after  string
	to     string
	top    bool
}

func (t moveTarget) count() int {
	n := 0
	for _, v := range []string{t.before, t.after, t.to} {
		if v != "" {
			n++
		}
	}
	return n
}

// dropPlan is the drag a move command simulates: what is picked up and the
// targets under the pointer when it is released, innermost first.
type dropPlan struct {
	source  reorder.DragSource
	targets []reorder.DropTarget
}

type planner func(domain.Board) (dropPlan, error)

func taskDrop(b domain.Board, taskID string, t moveTarget) (dropPlan, error) {
	_, ci, ok := b.FindTask(taskID)
	if !ok {
		return dropPlan{}, fmt.Errorf("task %s is not on board %s", taskID, b.ID)
	}
	p := dropPlan{source: reorder.DragSource{Kind: reorder.KindTask, ID: taskID, ContainerID: b.Columns[ci].ID}}

	if t.to != "" {
		if b.ColumnIndex(t.to) < 0 {
			return dropPlan{}, fmt.Errorf("column %s is not on board %s", t.to, b.ID)
		}
		edge := reorder.EdgeBottom
		if t.top {
			edge = reorder.EdgeTop
		}
		p.targets = []reorder.DropTarget{{Kind: reorder.TargetColumn, ID: t.to, ContainerID: b.ID, Edge: edge}}
		return p, nil
	}

	ref, edge := t.before, reorder.EdgeTop
	if t.after != "" {
		ref, edge = t.after, reorder.EdgeBottom
	}
	_, rci, ok := b.FindTask(ref)
	if !ok {
		return dropPlan{}, fmt.Errorf("task %s is not on board %s", ref, b.ID)
	}
	// The pointer is over the reference task and, around it, its column.
	col := b.Columns[rci].ID
	p.targets = []reorder.DropTarget{
		{Kind: reorder.TargetTask, ID: ref, ContainerID: col, Edge: edge},
		{Kind: reorder.TargetColumn, ID: col, ContainerID: b.ID, Edge: edge},
	}
	return p, nil
}

func columnDrop(columnID string, t moveTarget) planner {
	return func(b domain.Board) (dropPlan, error) {
		if b.ColumnIndex(columnID) < 0 {
			return dropPlan{}, fmt.Errorf("column %s is not on board %s", columnID, b.ID)
		}
		ref, edge := t.before, reorder.EdgeLeft
		if t.after != "" {
			ref, edge = t.after, reorder.EdgeRight
		}
		if b.ColumnIndex(ref) < 0 {
			return dropPlan{}, fmt.Errorf("column %s is not on board %s", ref, b.ID)
		}
		return dropPlan{
			source:  reorder.DragSource{Kind: reorder.KindColumn, ID: columnID, ContainerID: b.ID},
			targets: []reorder.DropTarget{{Kind: reorder.TargetColumn, ID: ref, ContainerID: b.ID, Edge: edge}},
		}, nil
	}
}

// drop loads the board, plays the planned gesture through boardsync and
// waits until the resulting position update has been delivered.
func (a *app) drop(cmd *cobra.Command, boardID string, plan planner) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	d := boardsync.NewDispatcher(a.client, boardsync.DefaultDispatcherConfig(), a.log)
	defer d.Close()
	var (
		mu    sync.Mutex
		fault error
	)
	d.OnFault(func(_ reorder.Instruction, err error) {
		mu.Lock()
		fault = err
		mu.Unlock()
	})

	board := boardsync.New(boardID, a.client, d, a.log)
	if err := board.Load(ctx); err != nil {
		return err
	}
	snap, _ := board.Snapshot()
	p, err := plan(snap)
	if err != nil {
		return err
	}

	board.DragStart(p.source)
	board.DragOver(p.targets)
	ins, ok := board.Drop()
	if !ok {
		fmt.Fprintln(out, "Nothing to move")
		return nil
	}
	if err := d.Flush(ctx); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if fault != nil {
		return fmt.Errorf("move not saved: %w", fault)
	}
	fmt.Fprintf(out, "Moved %s %s to position %d\n", ins.Kind, ins.EntityID, ins.Position)
	return nil
}
