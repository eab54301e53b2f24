package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

const maxActivityLimit = 200

func boardActivity(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d.Activity == nil {
			return fail(c, "activity", domain.ErrNotFound)
		}
		ctx := c.Request().Context()
		id := c.Param("id")
		if err := ownBoard(ctx, d.Store, userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}

		limit := 0
		if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return fail(c, "invalid_limit", validationError("invalid limit"))
			}
			limit = min(n, maxActivityLimit)
		}
		events, err := d.Activity.List(ctx, id, limit)
		if err != nil {
			return fail(c, "activity", err)
		}
		metricsFrom(c).Set("events_returned", len(events))
		return c.JSON(http.StatusOK, events)
	}
}
