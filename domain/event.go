package domain

import "github.com/bytedance/sonic"

// Entity kinds carried by board events.
const (
	KindBoard  = "board"
	KindColumn = "column"
	KindTask   = "task"
)

// Board event types.
const (
	BoardCreated  = "board-created"
	BoardUpdated  = "board-updated"
	BoardDeleted  = "board-deleted"
	ColumnCreated = "column-created"
	ColumnUpdated = "column-updated"
	ColumnMoved   = "column-moved"
	ColumnDeleted = "column-deleted"
	TaskCreated   = "task-created"
	TaskUpdated   = "task-updated"
	TaskMoved     = "task-moved"
	TaskDeleted   = "task-deleted"
)

// BoardEvent describes a committed change to a board.
type BoardEvent struct {
	ID         string                 `json:"id"`
	BoardID    string                 `json:"boardId"`
	UserID     string                 `json:"userId"`
	EntityKind string                 `json:"entityKind"`
	EntityID   string                 `json:"entityId"`
	Type       string                 `json:"type"`
	Timestamp  int64                  `json:"timestamp"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// MoveData is the payload of task-moved and column-moved events.
type MoveData struct {
	ContainerID string `json:"containerId"`
	Position    int    `json:"position"`
}
