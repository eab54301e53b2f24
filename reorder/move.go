package reorder

import "kanban-board/domain"

// Kind discriminates what is being dragged.
type Kind string

const (
	KindTask   Kind = Kind(domain.KindTask)
	KindColumn Kind = Kind(domain.KindColumn)
)

// Move is a completed drag gesture. For tasks the containers are column ids;
// for columns both containers are the board id. An empty TargetItemID means
// the drop landed on an empty container or on its background.
type Move struct {
	Kind              Kind
	ItemID            string
	SourceContainerID string
	TargetContainerID string
	TargetItemID      string
	Edge              Edge
}

// Instruction is the single persistence call produced by a move. ContainerID
// is set only when the entity changed container.
type Instruction struct {
	Kind        Kind   `json:"kind"`
	EntityID    string `json:"entityId"`
	ContainerID string `json:"containerId,omitempty"`
	Position    int    `json:"position"`
}

// Apply computes the board that results from m. The second return value is
// the persistence instruction and the third reports whether anything changed.
// Stale references and self-drops return the input board untouched.
func Apply(b domain.Board, m Move) (domain.Board, Instruction, bool) {
	if m.ItemID == "" || m.ItemID == m.TargetItemID {
		return b, Instruction{}, false
	}
	switch m.Kind {
	case KindTask:
		return applyTaskMove(b, m)
	case KindColumn:
		return applyColumnMove(b, m)
	}
	return b, Instruction{}, false
}

func applyTaskMove(b domain.Board, m Move) (domain.Board, Instruction, bool) {
	si := b.ColumnIndex(m.SourceContainerID)
	ti := b.ColumnIndex(m.TargetContainerID)
	if si < 0 || ti < 0 {
		return b, Instruction{}, false
	}
	from := b.Columns[si].TaskIndex(m.ItemID)
	if from < 0 {
		return b, Instruction{}, false
	}

	src := removeAt(b.Columns[si].Tasks, from)
	moved := b.Columns[si].Tasks[from]

	dst := src
	if ti != si {
		dst = b.Columns[ti].Tasks
	}
	// The index is resolved against dst after the removal so same-column
	// moves do not shift by one.
	at, ok := insertionIndex(len(dst), func(i int) string { return dst[i].ID }, m.TargetItemID, m.Edge)
	if !ok {
		return b, Instruction{}, false
	}
	moved.ColumnID = m.TargetContainerID
	dst = insertAt(dst, at, moved)
	renumberTasks(dst)

	cols := make([]domain.Column, len(b.Columns))
	copy(cols, b.Columns)
	cols[ti].Tasks = dst
	if ti != si {
		renumberTasks(src)
		cols[si].Tasks = src
	}
	b.Columns = cols

	ins := Instruction{Kind: KindTask, EntityID: m.ItemID, Position: at}
	if ti != si {
		ins.ContainerID = m.TargetContainerID
	}
	return b, ins, true
}

func applyColumnMove(b domain.Board, m Move) (domain.Board, Instruction, bool) {
	if m.SourceContainerID != b.ID || m.TargetContainerID != b.ID {
		return b, Instruction{}, false
	}
	from := b.ColumnIndex(m.ItemID)
	if from < 0 {
		return b, Instruction{}, false
	}

	cols := removeAt(b.Columns, from)
	moved := b.Columns[from]
	at, ok := insertionIndex(len(cols), func(i int) string { return cols[i].ID }, m.TargetItemID, m.Edge)
	if !ok {
		return b, Instruction{}, false
	}
	cols = insertAt(cols, at, moved)
	for i := range cols {
		cols[i].Position = i
	}
	b.Columns = cols

	return b, Instruction{Kind: KindColumn, EntityID: m.ItemID, Position: at}, true
}

// insertionIndex resolves where to insert into a sequence of n items. A
// target that is not present means the gesture referenced a stale item.
func insertionIndex(n int, idAt func(int) string, target string, edge Edge) (int, bool) {
	if target == "" {
		if edge.After() {
			return n, true
		}
		return 0, true
	}
	for i := 0; i < n; i++ {
		if idAt(i) == target {
			if edge.After() {
				return i + 1, true
			}
			return i, true
		}
	}
	return 0, false
}

// removeAt returns a fresh slice without element i; s is left intact.
func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s))
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// insertAt returns a fresh slice with v inserted at i.
func insertAt[T any](s []T, i int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

func renumberTasks(tasks []domain.Task) {
	for i := range tasks {
		tasks[i].Position = i
	}
}
