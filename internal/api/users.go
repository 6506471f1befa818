package api

import (
	"context"
	"net/http"
)

// UsersGateway covers /users.
type UsersGateway struct{ c *Client }

func (c *Client) Users() *UsersGateway { return &UsersGateway{c: c} }

func (g *UsersGateway) Profile(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/users/profile", nil, nil, &out)
	return out.User, err
}

func (g *UsersGateway) UpdateProfile(ctx context.Context, upd ProfileUpdate) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	_, err := g.c.do(ctx, http.MethodPut, "/users/profile", nil, upd, &out)
	return out.User, err
}
