package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"kanban-board/domain"
)

type createColumnBody struct {
	Title    string `json:"title"`
	BoardID  string `json:"boardId"`
	Position *int   `json:"position,omitempty"`
}

type updateColumnBody struct {
	Title    *string `json:"title,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// CreateColumn adds a column to a board. A nil position appends it.
func (c *Client) CreateColumn(ctx context.Context, boardID, title string, position *int) (domain.Column, error) {
	var col domain.Column
	body := createColumnBody{Title: title, BoardID: boardID, Position: position}
	err := c.do(ctx, http.MethodPost, "/columns", body, &col, "Idempotency-Key", uuid.NewString())
	return col, err
}

// GetColumn returns a column with its tasks.
func (c *Client) GetColumn(ctx context.Context, columnID string) (domain.Column, error) {
	var col domain.Column
	err := c.do(ctx, http.MethodGet, "/columns/"+columnID, nil, &col)
	return col, err
}

// RenameColumn changes a column title.
func (c *Client) RenameColumn(ctx context.Context, columnID, title string) (domain.Column, error) {
	var col domain.Column
	err := c.do(ctx, http.MethodPatch, "/columns/"+columnID, updateColumnBody{Title: &title}, &col)
	return col, err
}

// DeleteColumn removes a column and its tasks.
func (c *Client) DeleteColumn(ctx context.Context, columnID string) error {
	return c.do(ctx, http.MethodDelete, "/columns/"+columnID, nil, nil)
}
