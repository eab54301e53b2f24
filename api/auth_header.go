package api

import (
	"errors"
	"strings"
	"unsafe"

	"github.com/labstack/echo/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerScheme = "bearer "

// authorizationFrom returns the Authorization header, falling back to a
// token query parameter for clients such as EventSource that cannot set
// headers.
func authorizationFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		return h
	}
	if token := c.QueryParam("token"); token != "" {
		return "Bearer " + token
	}
	return ""
}

// bearerTokenFromString strips the scheme from an Authorization value and
// checks the token looks like a compact JWS. The returned bytes alias raw.
func bearerTokenFromString(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errMissingAuthorization
	}
	if len(trimmed) <= len(bearerScheme) || !strings.EqualFold(trimmed[:len(bearerScheme)], bearerScheme) {
		return nil, errBadAuthorization
	}
	token := strings.TrimLeft(trimmed[len(bearerScheme):], " ")
	if strings.Count(token, ".") != 2 {
		return nil, errBadAuthorization
	}
	return readOnlyBytes(token), nil
}

func readOnlyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func readOnlyString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
