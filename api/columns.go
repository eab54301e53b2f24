package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

type createColumnRequest struct {
	Title    *string `json:"title"`
	BoardID  string  `json:"boardId"`
	Position *int    `json:"position"`
}

type updateColumnRequest struct {
	Title    *string `json:"title"`
	Position *int    `json:"position"`
	BoardID  *string `json:"boardId"`
}

func listColumns(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		cols, err := d.Store.ListColumns(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, cols)
	}
}

func createColumn(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createColumnRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		title, err := requireTitle(req.Title)
		if err != nil {
			return fail(c, "validate", err)
		}
		if err := checkPosition(req.Position); err != nil {
			return fail(c, "validate", err)
		}
		if req.BoardID == "" {
			return fail(c, "validate", validationError("boardId is required"))
		}
		ctx := c.Request().Context()
		userID := userIDFrom(c)
		if err := ownBoard(ctx, d.Store, userID, req.BoardID); err != nil {
			return fail(c, "ownership", err)
		}
		release, ok, err := claimIdempotency(c, d, userID)
		if !ok || err != nil {
			return err
		}

		col, err := d.Store.CreateColumn(ctx, domain.NewColumn{BoardID: req.BoardID, Title: title, Position: req.Position})
		if err != nil {
			release()
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{
			boardID: col.BoardID, kind: domain.KindColumn, entityID: col.ID, typ: domain.ColumnCreated,
			data: domain.MoveData{ContainerID: col.BoardID, Position: col.Position},
		})
		return c.JSON(http.StatusCreated, col)
	}
}

func getColumn(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		if _, err := ownColumn(ctx, d.Store, userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		col, err := d.Store.GetColumn(ctx, id)
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func updateColumn(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		boardID, err := ownColumn(ctx, d.Store, userID, id)
		if err != nil {
			return fail(c, "ownership", err)
		}
		var req updateColumnRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		if req.BoardID != nil && *req.BoardID != boardID {
			if err := ownBoard(ctx, d.Store, userID, *req.BoardID); err != nil {
				return fail(c, "ownership", err)
			}
			return fail(c, "validate", domain.ErrCrossBoardMove)
		}
		var patch domain.ColumnPatch
		if req.Title != nil {
			title, err := requireTitle(req.Title)
			if err != nil {
				return fail(c, "validate", err)
			}
			patch.Title = &title
		}
		if err := checkPosition(req.Position); err != nil {
			return fail(c, "validate", err)
		}
		patch.Position = req.Position

		col, err := d.Store.UpdateColumn(ctx, id, patch)
		if err != nil {
			return fail(c, "storage", err)
		}
		var changes []change
		if patch.Title != nil {
			changes = append(changes, change{boardID: boardID, kind: domain.KindColumn, entityID: id, typ: domain.ColumnUpdated, data: titleData{Title: col.Title}})
		}
		if patch.Position != nil {
			changes = append(changes, change{
				boardID: boardID, kind: domain.KindColumn, entityID: id, typ: domain.ColumnMoved,
				data: domain.MoveData{ContainerID: boardID, Position: col.Position},
			})
		}
		d.commit(ctx, userID, changes...)
		return c.JSON(http.StatusOK, col)
	}
}

func deleteColumn(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		boardID, err := ownColumn(ctx, d.Store, userID, id)
		if err != nil {
			return fail(c, "ownership", err)
		}
		if err := d.Store.DeleteColumn(ctx, id); err != nil {
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{boardID: boardID, kind: domain.KindColumn, entityID: id, typ: domain.ColumnDeleted})
		return c.NoContent(http.StatusNoContent)
	}
}
