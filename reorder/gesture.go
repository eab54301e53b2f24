package reorder

// Phase is the state of a single drag gesture.
type Phase int

const (
	Idle Phase = iota
	Dragging
	DraggingOver
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case DraggingOver:
		return "dragging-over"
	}
	return "unknown"
}

// GestureState is the indicator state of a gesture. Over and Edge are only
// meaningful while DraggingOver.
type GestureState struct {
	Phase  Phase
	Source DragSource
	Over   string
	Edge   Edge
}

// Gesture tracks one drag from start to drop or cancel. Every transition
// reports whether the state actually changed so callers can skip redundant
// re-renders. The zero value is idle.
type Gesture struct {
	state   GestureState
	targets []DropTarget
}

// State returns the current state.
func (g *Gesture) State() GestureState { return g.state }

// Start begins a drag. Starting while a drag is in flight restarts it.
func (g *Gesture) Start(src DragSource) bool {
	next := GestureState{Phase: Dragging, Source: src}
	g.targets = nil
	return g.set(next)
}

// Over records the targets under the pointer, innermost first. Targets that
// do not accept the source are dropped from the list. An empty result goes
// back to Dragging.
func (g *Gesture) Over(targets []DropTarget) bool {
	if g.state.Phase == Idle {
		return false
	}
	accepted := targets[:0:0]
	for _, t := range targets {
		if t.Accepts(g.state.Source) {
			accepted = append(accepted, t)
		}
	}
	g.targets = accepted
	if len(accepted) == 0 {
		return g.set(GestureState{Phase: Dragging, Source: g.state.Source})
	}
	return g.set(GestureState{
		Phase:  DraggingOver,
		Source: g.state.Source,
		Over:   accepted[0].ID,
		Edge:   accepted[0].Edge,
	})
}

// Leave clears the hovered targets without ending the drag.
func (g *Gesture) Leave() bool {
	if g.state.Phase == Idle {
		return false
	}
	g.targets = nil
	return g.set(GestureState{Phase: Dragging, Source: g.state.Source})
}

// Drop ends the gesture and resolves it against the last hovered targets.
// A drop outside any target, or a second drop for the same gesture, yields
// no move.
func (g *Gesture) Drop() (Move, bool) {
	if g.state.Phase == Idle {
		return Move{}, false
	}
	src, targets := g.state.Source, g.targets
	g.reset()
	return Resolve(src, targets)
}

// Cancel ends the gesture without producing a move.
func (g *Gesture) Cancel() bool {
	if g.state.Phase == Idle {
		return false
	}
	g.reset()
	return true
}

func (g *Gesture) reset() {
	g.state = GestureState{}
	g.targets = nil
}

func (g *Gesture) set(next GestureState) bool {
	if g.state == next {
		return false
	}
	g.state = next
	return true
}
