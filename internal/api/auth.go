package api

import (
	"context"
	"net/http"
)

// AuthResult is the payload of login and register.
type AuthResult struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"-"`
}

// AuthGateway covers /auth.
type AuthGateway struct{ c *Client }

func (c *Client) Auth() *AuthGateway { return &AuthGateway{c: c} }

// Login exchanges credentials for a token.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	msg, err := g.c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out)
	out.Message = msg
	return out, err
}

// Register creates an account and signs it in.
func (g *AuthGateway) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var out AuthResult
	msg, err := g.c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out)
	out.Message = msg
	return out, err
}

// Me verifies the current token and returns its user.
func (g *AuthGateway) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out.User, err
}

// Logout notifies the backend. The caller clears local state regardless.
func (g *AuthGateway) Logout(ctx context.Context) error {
	_, err := g.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	return err
}
