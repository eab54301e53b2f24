package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Store == nil || d.Auth == nil {
		panic("api: store and auth are required")
	}
	if d.Log == nil {
		d.Log = log.StandardLogger()
	}
	if d.BcryptCost == 0 {
		d.BcryptCost = bcrypt.DefaultCost
	}

	e.Use(inflateRequests(), observe(d.Log))

	e.GET("/healthz", healthz(d.Store))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})))

	if d.Issuer != nil && d.Issuer.CanIssue() {
		e.POST("/auth/register", register(d))
		e.POST("/auth/login", login(d))
	}

	// Auth is attached per route. A group with an empty prefix would also
	// catch unmatched paths and turn every 404 into a 401.
	authed := requireAuth(d.Auth)
	routes := []struct {
		method, path string
		h            echo.HandlerFunc
	}{
		{http.MethodGet, "/auth/me", me(d)},

		{http.MethodGet, "/users/:id", getUser(d)},
		{http.MethodPatch, "/users/:id", updateUser(d)},
		{http.MethodDelete, "/users/:id", deleteUser(d)},

		{http.MethodGet, "/boards", listBoards(d)},
		{http.MethodPost, "/boards", createBoard(d)},
		{http.MethodGet, "/boards/:id", getBoard(d)},
		{http.MethodPatch, "/boards/:id", updateBoard(d)},
		{http.MethodDelete, "/boards/:id", deleteBoard(d)},
		{http.MethodGet, "/boards/:id/stream", streamBoard(d)},
		{http.MethodGet, "/boards/:id/activity", boardActivity(d)},

		{http.MethodGet, "/columns", listColumns(d)},
		{http.MethodPost, "/columns", createColumn(d)},
		{http.MethodGet, "/columns/:id", getColumn(d)},
		{http.MethodPatch, "/columns/:id", updateColumn(d)},
		{http.MethodDelete, "/columns/:id", deleteColumn(d)},

		{http.MethodGet, "/tasks", listTasks(d)},
		{http.MethodPost, "/tasks", createTask(d)},
		{http.MethodGet, "/tasks/:id", getTask(d)},
		{http.MethodPatch, "/tasks/:id", updateTask(d)},
		{http.MethodDelete, "/tasks/:id", deleteTask(d)},
	}
	for _, r := range routes {
		e.Add(r.method, r.path, r.h, authed)
	}
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			metricsFrom(c).SetErrorStage("storage")
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, "storage unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}
