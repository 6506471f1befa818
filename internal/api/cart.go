package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"vastram/internal/cart"
)

// CartGateway covers /cart and implements cart.Gateway.
type CartGateway struct{ c *Client }

var _ cart.Gateway = (*CartGateway)(nil)

func (c *Client) Cart() *CartGateway { return &CartGateway{c: c} }

type cartService struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	ProcessingTime string `json:"processingTime"`
}

type cartLine struct {
	Service  json.RawMessage `json:"service"`
	Price    int64           `json:"price"`
	Quantity int             `json:"quantity"`
}

type cartPayload struct {
	Cart struct {
		Items []cartLine `json:"items"`
	} `json:"cart"`
}

// snapshot projects backend lines onto cart items. The service field is
// normally populated; a bare id string is tolerated.
func (p cartPayload) snapshot() (cart.Snapshot, error) {
	items := make([]cart.Item, 0, len(p.Cart.Items))
	for _, line := range p.Cart.Items {
		var svc cartService
		if len(line.Service) > 0 && line.Service[0] == '"' {
			if err := json.Unmarshal(line.Service, &svc.ID); err != nil {
				return cart.Snapshot{}, err
			}
		} else if len(line.Service) > 0 {
			if err := json.Unmarshal(line.Service, &svc); err != nil {
				return cart.Snapshot{}, err
			}
		}
		items = append(items, cart.Item{
			ServiceID:      svc.ID,
			Name:           svc.Name,
			UnitPrice:      line.Price,
			Quantity:       line.Quantity,
			Category:       svc.Category,
			ProcessingTime: svc.ProcessingTime,
		})
	}
	return cart.NewSnapshot(items), nil
}

func (g *CartGateway) call(ctx context.Context, method, path string, body interface{}) (cart.Snapshot, error) {
	var out cartPayload
	if _, err := g.c.do(ctx, method, path, nil, body, &out); err != nil {
		return cart.Snapshot{}, err
	}
	return out.snapshot()
}

func (g *CartGateway) GetCart(ctx context.Context) (cart.Snapshot, error) {
	return g.call(ctx, http.MethodGet, "/cart", nil)
}

func (g *CartGateway) AddItem(ctx context.Context, serviceID string, quantity int) (cart.Snapshot, error) {
	body := map[string]interface{}{"serviceId": serviceID, "quantity": quantity}
	return g.call(ctx, http.MethodPost, "/cart/items", body)
}

func (g *CartGateway) UpdateItem(ctx context.Context, serviceID string, quantity int) (cart.Snapshot, error) {
	body := map[string]int{"quantity": quantity}
	return g.call(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(serviceID), body)
}

func (g *CartGateway) RemoveItem(ctx context.Context, serviceID string) (cart.Snapshot, error) {
	return g.call(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(serviceID), nil)
}

func (g *CartGateway) ClearCart(ctx context.Context) error {
	_, err := g.c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
	return err
}
