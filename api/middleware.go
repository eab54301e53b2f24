package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	ctxUserID  = "kanban.userID"
	ctxMetrics = "kanban.metrics"
)

// inflateRequests unwraps request bodies sent with Content-Encoding gzip. A
// body that is not valid gzip fails with 400 before it reaches a handler.
func inflateRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			gzipped := false
			for _, enc := range strings.Split(req.Header.Get(echo.HeaderContentEncoding), ",") {
				gzipped = gzipped || strings.EqualFold(strings.TrimSpace(enc), "gzip")
			}
			if !gzipped {
				return next(c)
			}
			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				metricsFrom(c).SetErrorStage("decode")
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = inflatedBody{zr: zr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

// inflatedBody closes both the gzip stream and the wire body.
type inflatedBody struct {
	zr  *gzip.Reader
	raw io.ReadCloser
}

func (b inflatedBody) Read(p []byte) (int, error) { return b.zr.Read(p) }

func (b inflatedBody) Close() error {
	return errors.Join(b.zr.Close(), b.raw.Close())
}

// observe wraps every request in a requestMetrics. Handlers reach it through
// metricsFrom to annotate the error stage.
func observe(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m, ctx := newRequestMetrics(c.Request().Context(), logger, c.Request().Method, route)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(ctxMetrics, m)

			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			m.Log(status, err)
			return err
		}
	}
}

// requireAuth resolves the caller and rejects the request with 401 when the
// bearer token is missing or invalid.
func requireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromAuthHeader(authorizationFrom(c))
			if err != nil {
				metricsFrom(c).SetErrorStage("auth")
				return c.String(http.StatusUnauthorized, err.Error())
			}
			c.Set(ctxUserID, userID)
			return next(c)
		}
	}
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(ctxMetrics).(*requestMetrics)
	return m
}

func userIDFrom(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}
