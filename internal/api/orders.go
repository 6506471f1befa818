package api

import (
	"context"
	"net/http"
	"net/url"
)

// OrdersGateway covers /orders.
type OrdersGateway struct{ c *Client }

func (c *Client) Orders() *OrdersGateway { return &OrdersGateway{c: c} }

// Create places an order and returns it with the backend message.
func (g *OrdersGateway) Create(ctx context.Context, req CreateOrderRequest) (Order, string, error) {
	var out struct {
		Order Order `json:"order"`
	}
	msg, err := g.c.do(ctx, http.MethodPost, "/orders", nil, req, &out)
	return out.Order, msg, err
}

// List returns the signed-in user's orders.
func (g *OrdersGateway) List(ctx context.Context, q OrderQuery) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/orders", q, nil, &out)
	return out.Orders, err
}

// Get returns one order.
func (g *OrdersGateway) Get(ctx context.Context, id string) (Order, error) {
	var out struct {
		Order Order `json:"order"`
	}
	_, err := g.c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out)
	return out.Order, err
}
