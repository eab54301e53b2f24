package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"kanban-board/domain"
	"kanban-board/reorder"
)

// NewTask describes a task to create. Empty priority means medium and a nil
// position appends the task to its column.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ColumnID    string `json:"columnId"`
	Position    *int   `json:"position,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// TaskPatch carries the editable task fields; nil fields are kept.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	ColumnID    *string `json:"columnId,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, t NewTask) (domain.Task, error) {
	var out domain.Task
	err := c.do(ctx, http.MethodPost, "/tasks", t, &out, "Idempotency-Key", uuid.NewString())
	return out, err
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	var out domain.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+taskID, nil, &out)
	return out, err
}

// UpdateTask edits a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, p TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := c.do(ctx, http.MethodPatch, "/tasks/"+taskID, p, &out)
	return out, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, nil)
}

// UpdatePosition persists one reorder instruction. Only the moved entity is
// sent; the backend renumbers its siblings.
func (c *Client) UpdatePosition(ctx context.Context, ins reorder.Instruction) error {
	pos := ins.Position
	switch ins.Kind {
	case reorder.KindTask:
		p := TaskPatch{Position: &pos}
		if ins.ContainerID != "" {
			col := ins.ContainerID
			p.ColumnID = &col
		}
		return c.do(ctx, http.MethodPatch, "/tasks/"+ins.EntityID, p, nil)
	case reorder.KindColumn:
		return c.do(ctx, http.MethodPatch, "/columns/"+ins.EntityID, updateColumnBody{Position: &pos}, nil)
	}
	return fmt.Errorf("unknown instruction kind %q", ins.Kind)
}
