package client

import (
	"context"
	"net/http"

	"kanban-board/domain"
	"kanban-board/session"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// UserPatch carries the fields of a profile update; nil fields are kept.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Register creates an account and signs in with it.
func (c *Client) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	return c.authenticate(ctx, "/auth/register", credentials{Name: name, Email: email, Password: password})
}

// Login signs in and stores the token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	return c.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, body credentials) (domain.User, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return domain.User{}, err
	}
	u := out.User
	if err := c.sess.Set(out.AccessToken, session.User{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Logout forgets the token.
func (c *Client) Logout() error {
	return c.sess.Clear()
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

// UpdateUser edits the profile of user id.
func (c *Client) UpdateUser(ctx context.Context, id string, p UserPatch) (domain.User, error) {
	var u domain.User
	err := c.do(ctx, http.MethodPatch, "/users/"+id, p, &u)
	return u, err
}

// DeleteUser removes the account and everything it owns.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil)
}
