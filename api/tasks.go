package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

type createTaskRequest struct {
	Title       *string `json:"title"`
	Description string  `json:"description"`
	ColumnID    string  `json:"columnId"`
	Position    *int    `json:"position"`
	Priority    string  `json:"priority"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	ColumnID    *string `json:"columnId"`
	Position    *int    `json:"position"`
}

func listTasks(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := d.Store.ListTasks(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return fail(c, "storage", err)
		}
		metricsFrom(c).Set("tasks_returned", len(tasks))
		return c.JSON(http.StatusOK, tasks)
	}
}

func createTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		title, err := requireTitle(req.Title)
		if err != nil {
			return fail(c, "validate", err)
		}
		priority, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return fail(c, "validate", err)
		}
		if err := checkPosition(req.Position); err != nil {
			return fail(c, "validate", err)
		}
		if req.ColumnID == "" {
			return fail(c, "validate", validationError("columnId is required"))
		}
		ctx := c.Request().Context()
		userID := userIDFrom(c)
		boardID, err := ownColumn(ctx, d.Store, userID, req.ColumnID)
		if err != nil {
			return fail(c, "ownership", err)
		}
		release, ok, err := claimIdempotency(c, d, userID)
		if !ok || err != nil {
			return err
		}

		t, err := d.Store.CreateTask(ctx, domain.NewTask{
			ColumnID:    req.ColumnID,
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			Priority:    priority,
			Position:    req.Position,
		})
		if err != nil {
			release()
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{
			boardID: boardID, kind: domain.KindTask, entityID: t.ID, typ: domain.TaskCreated,
			data: domain.MoveData{ContainerID: t.ColumnID, Position: t.Position},
		})
		return c.JSON(http.StatusCreated, t)
	}
}

func getTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		if _, err := ownTask(ctx, d.Store, userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		t, err := d.Store.GetTask(ctx, id)
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

// updateTask applies field edits and moves. A move may target any column
// the caller owns; when it crosses boards both boards are notified.
func updateTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		fromBoard, err := ownTask(ctx, d.Store, userID, id)
		if err != nil {
			return fail(c, "ownership", err)
		}
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}

		var patch domain.TaskPatch
		if req.Title != nil {
			title, err := requireTitle(req.Title)
			if err != nil {
				return fail(c, "validate", err)
			}
			patch.Title = &title
		}
		if req.Description != nil {
			desc := strings.TrimSpace(*req.Description)
			patch.Description = &desc
		}
		if req.Priority != nil {
			p := domain.Priority(*req.Priority)
			if !p.Valid() {
				return fail(c, "validate", domain.ErrInvalidPriority)
			}
			patch.Priority = &p
		}
		if err := checkPosition(req.Position); err != nil {
			return fail(c, "validate", err)
		}
		patch.Position = req.Position

		toBoard := fromBoard
		if req.ColumnID != nil {
			if toBoard, err = ownColumn(ctx, d.Store, userID, *req.ColumnID); err != nil {
				return fail(c, "ownership", err)
			}
			patch.ColumnID = req.ColumnID
		}

		t, err := d.Store.UpdateTask(ctx, id, patch)
		if err != nil {
			return fail(c, "storage", err)
		}

		var changes []change
		if patch.Title != nil || patch.Description != nil || patch.Priority != nil {
			changes = append(changes, change{boardID: toBoard, kind: domain.KindTask, entityID: id, typ: domain.TaskUpdated, data: t})
		}
		if patch.Moves() {
			moved := domain.MoveData{ContainerID: t.ColumnID, Position: t.Position}
			changes = append(changes, change{boardID: toBoard, kind: domain.KindTask, entityID: id, typ: domain.TaskMoved, data: moved})
			if fromBoard != toBoard {
				changes = append(changes, change{boardID: fromBoard, kind: domain.KindTask, entityID: id, typ: domain.TaskMoved, data: moved})
			}
		}
		d.commit(ctx, userID, changes...)
		return c.JSON(http.StatusOK, t)
	}
}

func deleteTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		userID := userIDFrom(c)
		boardID, err := ownTask(ctx, d.Store, userID, id)
		if err != nil {
			return fail(c, "ownership", err)
		}
		if err := d.Store.DeleteTask(ctx, id); err != nil {
			return fail(c, "storage", err)
		}
		d.commit(ctx, userID, change{boardID: boardID, kind: domain.KindTask, entityID: id, typ: domain.TaskDeleted})
		return c.NoContent(http.StatusNoContent)
	}
}
