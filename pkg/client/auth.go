package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/iliyamo/admin-console/internal/guard"
	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/session"
)

var _ session.Credentials = (*Client)(nil)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ReturnTo string `json:"returnTo,omitempty"`
}

// SignIn logs in and keeps the returned tokens.  The response carries the
// server's filtered menu tree and, when returnTo was given, where the
// server would send the user.
func (c *Client) SignIn(ctx context.Context, email, password, returnTo string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.post(ctx, "/v1/auth/login", loginReq{Email: email, Password: password, ReturnTo: returnTo}, &resp)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.Status == http.StatusUnauthorized {
			te.Err = session.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	c.SetToken(resp.Token, resp.RefreshToken)
	return resp, nil
}

// Login implements session.Credentials.  A rejected attempt wraps
// session.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (session.Grant, error) {
	resp, err := c.SignIn(ctx, email, password, "")
	if err != nil {
		return session.Grant{}, err
	}
	return grant(resp), nil
}

// CurrentUser implements session.Credentials.  Without a token, or when the
// server no longer accepts it, there is no session and the result is nil.
func (c *Client) CurrentUser(ctx context.Context) (*session.Grant, error) {
	if c.Token() == "" {
		return nil, nil
	}
	var resp model.AuthResponse
	if err := c.get(ctx, "/v1/auth/session", nil, &resp); err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = c.RefreshToken()
	}
	g := grant(resp)
	return &g, nil
}

// Logout implements session.Credentials.  The local tokens are dropped even
// when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.post(ctx, "/v1/auth/logout", nil, nil)
	c.clearToken()
	if StatusOf(err) == http.StatusUnauthorized {
		return nil
	}
	return err
}

// Refresh exchanges the refresh token.  rotate asks for a new refresh token
// as well; otherwise only the access token is renewed.
func (c *Client) Refresh(ctx context.Context, rotate bool) (model.AuthResponse, error) {
	path := "/v1/auth/refresh-access"
	if rotate {
		path = "/v1/auth/refresh"
	}
	var resp model.AuthResponse
	if err := c.post(ctx, path, map[string]string{"refreshToken": c.RefreshToken()}, &resp); err != nil {
		return model.AuthResponse{}, err
	}
	c.SetToken(resp.Token, resp.RefreshToken)
	return resp, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.get(ctx, "/v1/me", nil, &u)
	return u, err
}

// Menus returns the navigation tree the server filtered for the caller.
func (c *Client) Menus(ctx context.Context) ([]*model.Menu, error) {
	var out []*model.Menu
	err := c.get(ctx, "/v1/me/menus", nil, &out)
	return out, err
}

// Navigate asks the server's guard what opening path would do.
func (c *Client) Navigate(ctx context.Context, path string) (guard.Result, error) {
	var r guard.Result
	err := c.get(ctx, "/v1/navigation", url.Values{"path": {path}}, &r)
	return r, err
}

// grant turns a session DTO back into what a session applies.  The tree is
// flattened so the receiving session rebuilds and filters it itself.
func grant(resp model.AuthResponse) session.Grant {
	return session.Grant{
		User:         resp.User,
		Token:        resp.Token,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		Menus:        menutree.Flatten(resp.Menus),
	}
}
