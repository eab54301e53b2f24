package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestInflateRequestsDecompresses(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"title":"zipped"}`))
	_ = zw.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentEncoding, "br, gzip")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var body string
	h := inflateRequests()(func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		body = string(raw)
		return err
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if body != `{"title":"zipped"}` {
		t.Fatalf("unexpected body %q", body)
	}
	if c.Request().Header.Get(echo.HeaderContentEncoding) != "" {
		t.Fatal("content encoding header should be removed")
	}
}

func TestInflateRequestsRejectsInvalidBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("plain"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	c := e.NewContext(req, httptest.NewRecorder())

	err := inflateRequests()(func(echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestInflateRequestsClosesWireBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{}`))
	_ = zw.Close()
	raw := &closeTracker{Reader: &buf}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Body = raw
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	c := e.NewContext(req, httptest.NewRecorder())

	err := inflateRequests()(func(c echo.Context) error {
		if _, err := io.ReadAll(c.Request().Body); err != nil {
			return err
		}
		return c.Request().Body.Close()
	})(c)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !raw.closed {
		t.Fatal("wire body should be closed with the gzip reader")
	}
}

func TestAuthorizationFromQueryToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/boards/b/stream?token=a.b.c", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if got := authorizationFrom(c); got != "Bearer a.b.c" {
		t.Fatalf("unexpected authorization %q", got)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer x.y.z")
	if got := authorizationFrom(c); got != "Bearer x.y.z" {
		t.Fatalf("header must win over query, got %q", got)
	}
}

func TestNextTimestampMonotonic(t *testing.T) {
	t.Cleanup(func() { atomic.StoreInt64(&lastTimestamp, 0) })
	atomic.StoreInt64(&lastTimestamp, time.Now().Add(time.Second).UnixNano())

	first := nextTimestamp()
	second := nextTimestamp()
	if second-first != 1 {
		t.Fatalf("expected consecutive timestamps, got %d then %d", first, second)
	}
}
