package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/estoque-app/estoque/pkg/domain"
)

// Credentials is the payload of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login opens a server session. The session cookie arrives out-of-band
// through the jar; nothing in the response body is trusted.
func (c *Client) Login(ctx context.Context, username, password string) error {
	err := c.doRequest(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   Credentials{Username: username, Password: password},
		probe:  true,
	})
	if err != nil {
		return fmt.Errorf("client.Login: %w", err)
	}
	return nil
}

// Logout invalidates the server session. A 401 here means the session is
// already gone, so it does not start an unauthorized episode.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, call{method: http.MethodPost, path: "/auth/logout", probe: true}); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Me returns the identity bound to the current session cookie. A 200 with
// an empty body yields (nil, nil).
func (c *Client) Me(ctx context.Context) (*domain.Identity, error) {
	var id *domain.Identity
	if err := c.doRequest(ctx, call{method: http.MethodGet, path: "/auth/me", out: &id, probe: true}); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	if id == nil || id.Username == "" {
		return nil, nil
	}
	return id, nil
}
