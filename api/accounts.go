package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"kanban-board/domain"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

const (
	minNameLength           = 3
	minPasswordLength       = 6
	minUpdatePasswordLength = 8
)

func register(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		req.Name = strings.TrimSpace(req.Name)
		if len(req.Name) < minNameLength {
			return fail(c, "validate", validationError("name must be at least 3 characters"))
		}
		email, err := normalizeEmail(req.Email)
		if err != nil {
			return fail(c, "validate", err)
		}
		if len(req.Password) < minPasswordLength {
			return fail(c, "validate", validationError("password must be at least 6 characters"))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), d.BcryptCost)
		if err != nil {
			return fail(c, "hash", err)
		}
		ctx := c.Request().Context()
		u, err := d.Store.CreateUser(ctx, req.Name, email, string(hash))
		if err != nil {
			return fail(c, "storage", err)
		}
		token, err := d.Issuer.IssueToken(u)
		if err != nil {
			return fail(c, "issue_token", err)
		}
		return c.JSON(http.StatusCreated, tokenResponse{AccessToken: token, User: u})
	}
}

func login(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}
		ctx := c.Request().Context()
		u, err := d.Store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, domain.ErrNotFound) {
			return fail(c, "auth", domain.ErrInvalidCredentials)
		}
		if err != nil {
			return fail(c, "storage", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			return fail(c, "auth", domain.ErrInvalidCredentials)
		}
		token, err := d.Issuer.IssueToken(u)
		if err != nil {
			return fail(c, "issue_token", err)
		}
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, User: u})
	}
}

func me(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := d.Store.UserByID(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, u)
	}
}

func getUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if err := ownUser(userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		u, err := d.Store.UserByID(c.Request().Context(), id)
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, u)
	}
}

func updateUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if err := ownUser(userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		var req updateUserRequest
		if err := decodeBody(c, &req); err != nil {
			return fail(c, "decode", err)
		}

		var patch domain.UserPatch
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if len(name) < minNameLength {
				return fail(c, "validate", validationError("name must be at least 3 characters"))
			}
			patch.Name = &name
		}
		if req.Email != nil {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				return fail(c, "validate", err)
			}
			patch.Email = &email
		}
		if req.Password != nil {
			if len(*req.Password) < minUpdatePasswordLength {
				return fail(c, "validate", validationError("password should be at least 8 characters long"))
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), d.BcryptCost)
			if err != nil {
				return fail(c, "hash", err)
			}
			h := string(hash)
			patch.PasswordHash = &h
		}

		u, err := d.Store.UpdateUser(c.Request().Context(), id, patch)
		if err != nil {
			return fail(c, "storage", err)
		}
		return c.JSON(http.StatusOK, u)
	}
}

func deleteUser(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if err := ownUser(userIDFrom(c), id); err != nil {
			return fail(c, "ownership", err)
		}
		if err := d.Store.DeleteUser(c.Request().Context(), id); err != nil {
			return fail(c, "storage", err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", validationError("please provide a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}
