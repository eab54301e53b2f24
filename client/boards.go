package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"kanban-board/domain"
)

type titleBody struct {
	Title string `json:"title"`
}

// ListBoards returns the caller's boards with their columns and tasks.
func (c *Client) ListBoards(ctx context.Context) ([]domain.Board, error) {
	var out []domain.Board
	err := c.do(ctx, http.MethodGet, "/boards", nil, &out)
	return out, err
}

// FetchBoard returns the authoritative tree of one board.
func (c *Client) FetchBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var b domain.Board
	err := c.do(ctx, http.MethodGet, "/boards/"+boardID, nil, &b)
	return b, err
}

// CreateBoard creates a board. Each call carries a fresh idempotency key so
// a transport-level resend cannot create it twice.
func (c *Client) CreateBoard(ctx context.Context, title string) (domain.Board, error) {
	var b domain.Board
	err := c.do(ctx, http.MethodPost, "/boards", titleBody{Title: title}, &b, "Idempotency-Key", uuid.NewString())
	return b, err
}

// RenameBoard changes the board title.
func (c *Client) RenameBoard(ctx context.Context, boardID, title string) (domain.Board, error) {
	var b domain.Board
	err := c.do(ctx, http.MethodPatch, "/boards/"+boardID, titleBody{Title: title}, &b)
	return b, err
}

// DeleteBoard removes a board with its columns and tasks.
func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodDelete, "/boards/"+boardID, nil, nil)
}

// Activity returns up to limit recent events of a board, newest first. A
// limit of zero uses the server default.
func (c *Client) Activity(ctx context.Context, boardID string, limit int) ([]domain.BoardEvent, error) {
	path := "/boards/" + boardID + "/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.BoardEvent
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}
