package api

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

// streamBoard sends the board as a server-sent event on connect and again
// after every change signalled by the broker. The stream ends when the
// client disconnects or the board is deleted.
func streamBoard(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d.Broker == nil {
			return fail(c, "stream", domain.ErrNotFound)
		}
		ctx := c.Request().Context()
		id := c.Param("id")
		if err := ownBoard(ctx, d.Store, userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}

		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ch, cancel := d.Broker.Subscribe(id)
		defer cancel()

		h := c.Response().Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set(echo.HeaderCacheControl, "no-cache")
		h.Set(echo.HeaderConnection, "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			b, err := d.Store.FetchBoard(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				if ctx.Err() == nil {
					c.Logger().Error(err)
				}
				return nil
			}
			data, err := sonic.Marshal(b)
			if err != nil {
				c.Logger().Error(err)
				return nil
			}
			if err := writeEvent(c.Response(), data); err != nil {
				return nil
			}
			flusher.Flush()

			select {
			case <-ctx.Done():
				return nil
			case <-ch:
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, data []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}
