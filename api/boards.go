package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

type boardRequest struct {
	Title *string `json:"title"`
}

type titleData struct {
	Title string `json:"title"`
}

func listBoards(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		boards, err := d.Store.ListBoards(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return fail(c, "storage", err)
		}
		metricsFrom(c).Set("boards_returned", len(boards))
		return c.JSON(http.StatusOK, boards)
	}
}

func createBoard(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req boardRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		title, err := requireTitle(req.Title)
		if err != nil {
			return fail(c, "validate", err)
		}
		userID := userIDFrom(c)
		release, ok, err := claimIdempotency(c, d, userID)
		if !ok || err != nil {
			return err
		}

		ctx := c.Request().Context()
		b, err := d.Store.CreateBoard(ctx, userID, title)
		if err != nil {
			release()
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{boardID: b.ID, kind: domain.KindBoard, entityID: b.ID, typ: domain.BoardCreated, data: titleData{Title: b.Title}})
		return c.JSON(http.StatusCreated, b)
	}
}

func getBoard(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		if err := ownBoard(ctx, d.Store, userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		b, err := d.Store.FetchBoard(ctx, id)
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func updateBoard(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		if err := ownBoard(ctx, d.Store, userID, id); err != nil {
			return fail(c, "ownership", err)
		}
		var req boardRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		var patch domain.BoardPatch
		if req.Title != nil {
			title, err := requireTitle(req.Title)
			if err != nil {
				return fail(c, "validate", err)
			}
			patch.Title = &title
		}
		b, err := d.Store.UpdateBoard(ctx, id, patch)
		if err != nil {
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{boardID: id, kind: domain.KindBoard, entityID: id, typ: domain.BoardUpdated, data: titleData{Title: b.Title}})
		return c.JSON(http.StatusOK, b)
	}
}

func deleteBoard(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		if err := ownBoard(ctx, d.Store, userID, id); err != nil {
			return fail(c, "ownership", err)
		}
		if err := d.Store.DeleteBoard(ctx, id); err != nil {
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{boardID: id, kind: domain.KindBoard, entityID: id, typ: domain.BoardDeleted})
		return c.NoContent(http.StatusNoContent)
	}
}

// requireTitle trims a title and rejects missing or blank values.
func requireTitle(title *string) (string, error) {
	if title == nil {
		return "", domain.ErrEmptyTitle
	}
	t := strings.TrimSpace(*title)
	if t == "" {
		return "", domain.ErrEmptyTitle
	}
	return t, nil
}

func checkPosition(pos *int) error {
	if pos != nil && *pos < 0 {
		return domain.ErrInvalidPosition
	}
	return nil
}
