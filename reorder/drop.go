package reorder

// TargetKind discriminates what a drop target element represents.
type TargetKind string

const (
	TargetTask   TargetKind = "task"
	TargetColumn TargetKind = "column"
)

// DragSource is the payload attached to a draggable when the gesture starts.
// ContainerID is the owning column for tasks and the board for columns.
type DragSource struct {
	Kind        Kind
	ID          string
	ContainerID string
}

// DropTarget is the payload a target element reports for the current pointer.
// For a task target ContainerID is its column; for a column target it is the
// board. Edge is the closest allowed edge computed for the drag source.
type DropTarget struct {
	Kind        TargetKind
	ID          string
	ContainerID string
	Edge        Edge
}

// AllowedEdges returns the edges a target offers to the given source. Column
// targets are vertical for task sources and horizontal for column sources.
func AllowedEdges(src DragSource, target TargetKind) []Edge {
	if src.Kind == KindColumn && target == TargetColumn {
		return HorizontalEdges
	}
	return VerticalEdges
}

// Accepts reports whether t is willing to receive src. Task targets accept
// only tasks; column targets accept tasks and any other column.
func (t DropTarget) Accepts(src DragSource) bool {
	switch t.Kind {
	case TargetTask:
		return src.Kind == KindTask
	case TargetColumn:
		switch src.Kind {
		case KindTask:
			return true
		case KindColumn:
			return src.ID != t.ID
		}
	}
	return false
}

// HandleTaskDrop is the drop handler of a task element. targets holds every
// target active for the pointer, innermost first.
func HandleTaskDrop(src DragSource, self DropTarget, targets []DropTarget) (Move, bool) {
	if src.Kind != KindTask || self.Kind != TargetTask || len(targets) == 0 || targets[0].ID != self.ID {
		return Move{}, false
	}
	if src.ID == self.ID {
		return Move{}, false
	}
	return Move{
		Kind:              KindTask,
		ItemID:            src.ID,
		SourceContainerID: src.ContainerID,
		TargetContainerID: self.ContainerID,
		TargetItemID:      self.ID,
		Edge:              self.Edge,
	}, true
}

// HandleColumnDrop is the drop handler of a column element. A task drop with
// two active targets belongs to the task element underneath and is ignored.
func HandleColumnDrop(src DragSource, self DropTarget, targets []DropTarget) (Move, bool) {
	if self.Kind != TargetColumn || !self.Accepts(src) {
		return Move{}, false
	}
	switch src.Kind {
	case KindTask:
		if len(targets) == 2 {
			return Move{}, false
		}
		return Move{
			Kind:              KindTask,
			ItemID:            src.ID,
			SourceContainerID: src.ContainerID,
			TargetContainerID: self.ID,
			Edge:              self.Edge,
		}, true
	case KindColumn:
		if !self.Edge.Horizontal() {
			return Move{}, false
		}
		return Move{
			Kind:              KindColumn,
			ItemID:            src.ID,
			SourceContainerID: src.ContainerID,
			TargetContainerID: self.ContainerID,
			TargetItemID:      self.ID,
			Edge:              self.Edge,
		}, true
	}
	return Move{}, false
}

// Resolve delivers a physical drop to every active target, innermost first,
// and returns the move produced by the first handler that claims it. At most
// one move results from a single drop.
func Resolve(src DragSource, targets []DropTarget) (Move, bool) {
	for _, t := range targets {
		var (
			m  Move
			ok bool
		)
		switch t.Kind {
		case TargetTask:
			m, ok = HandleTaskDrop(src, t, targets)
		case TargetColumn:
			m, ok = HandleColumnDrop(src, t, targets)
		}
		if ok {
			return m, true
		}
	}
	return Move{}, false
}
