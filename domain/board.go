package domain

import "time"

// Board is the root of the kanban tree. Columns are ordered by Position.
type Board struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"ownerId"`
	Columns   []Column  `json:"columns"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Column is an ordered container of tasks within a board.
type Column struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a single card. Position ranks it within its owning column.
type Task struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Priority ranks the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority maps an empty string to the default priority.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// ColumnIndex returns the index of the column with the given id, or -1.
func (b Board) ColumnIndex(id string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask locates a task anywhere on the board.
func (b Board) FindTask(id string) (Task, int, bool) {
	for ci := range b.Columns {
		if ti := b.Columns[ci].TaskIndex(id); ti >= 0 {
			return b.Columns[ci].Tasks[ti], ci, true
		}
	}
	return Task{}, -1, false
}

// TaskIndex returns the index of the task with the given id, or -1.
func (c Column) TaskIndex(id string) int {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}
