package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const headerIdempotencyKey = "Idempotency-Key"

// claimIdempotency records the request's Idempotency-Key. It returns
// ok=false after writing a response when the key was already used. The
// returned release func forgets the key and must be called when the create
// fails so the client can retry.
func claimIdempotency(c echo.Context, d Deps, userID string) (release func(), ok bool, err error) {
	release = func() {}
	key := c.Request().Header.Get(headerIdempotencyKey)
	if key == "" || d.Deduper == nil {
		return release, true, nil
	}
	ctx := c.Request().Context()
	added, err := d.Deduper.Add(ctx, userID, key)
	if err != nil {
		// An unavailable deduper must not block writes.
		d.Log.WithError(err).Warn("idempotency check failed; continuing")
		return release, true, nil
	}
	if !added {
		metricsFrom(c).SetErrorStage("duplicate")
		return release, false, c.String(http.StatusConflict, "duplicate request")
	}
	return func() {
		if err := d.Deduper.Remove(ctx, userID, key); err != nil {
			d.Log.WithError(err).Warn("release idempotency key")
		}
	}, true, nil
}
