package api

import (
	"context"
	"net/http"
	"net/url"
)

// ServicesGateway covers /api/services.
type ServicesGateway struct{ c *Client }

func (c *Client) Services() *ServicesGateway { return &ServicesGateway{c: c} }

// List returns services matching q.
func (g *ServicesGateway) List(ctx context.Context, q ServiceQuery) ([]Service, error) {
	var out struct {
		Services []Service `json:"services"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/api/services", q, nil, &out)
	return out.Services, err
}

// Categories returns the backend's category list.
func (g *ServicesGateway) Categories(ctx context.Context) ([]Category, error) {
	var out struct {
		Categories []Category `json:"categories"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/api/services/categories", nil, nil, &out)
	return out.Categories, err
}

// Get returns one service.
func (g *ServicesGateway) Get(ctx context.Context, id string) (Service, error) {
	var out struct {
		Service Service `json:"service"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id), nil, nil, &out)
	return out.Service, err
}
