package mockbackend

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartServiceJSON struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	ProcessingTime string `json:"processingTime"`
}

type cartLineJSON struct {
	Service  cartServiceJSON `json:"service"`
	Price    int64           `json:"price"`
	Quantity int             `json:"quantity"`
}

type cartJSON struct {
	Items      []cartLineJSON `json:"items"`
	TotalItems int            `json:"totalItems"`
	TotalPrice int64          `json:"totalPrice"`
}

// cartViewLocked renders a user's cart with service details populated.
func (s *Server) cartViewLocked(userID string) cartJSON {
	out := cartJSON{Items: []cartLineJSON{}}
	for _, line := range s.carts[userID] {
		svc, found := s.findService(line.serviceID)
		if !found {
			continue
		}
		out.Items = append(out.Items, cartLineJSON{
			Service: cartServiceJSON{
				ID:             svc.ID,
				Name:           svc.Name,
				Category:       svc.Category,
				ProcessingTime: svc.ProcessingTime,
			},
			Price:    svc.Price,
			Quantity: line.quantity,
		})
		out.TotalItems += line.quantity
		out.TotalPrice += svc.Price * int64(line.quantity)
	}
	return out
}

func (s *Server) respondCart(c *gin.Context, userID, message string) {
	s.mu.Lock()
	view := s.cartViewLocked(userID)
	s.mu.Unlock()
	ok(c, http.StatusOK, message, gin.H{"cart": view})
}

func (s *Server) getCart(c *gin.Context) {
	s.respondCart(c, current(c).user.ID, "")
}

func (s *Server) addCartItem(c *gin.Context) {
	var req struct {
		ServiceID string `json:"serviceId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ServiceID == "" {
		fail(c, http.StatusBadRequest, "Service ID is required")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	userID := current(c).user.ID

	s.mu.Lock()
	svc, found := s.findService(req.ServiceID)
	if !found || !svc.IsActive {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "Service not found")
		return
	}
	lines := s.carts[userID]
	merged := false
	for i := range lines {
		if lines[i].serviceID == req.ServiceID {
			lines[i].quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, cartLine{serviceID: req.ServiceID, quantity: req.Quantity})
	}
	s.carts[userID] = lines
	s.mu.Unlock()

	s.respondCart(c, userID, "Item added to cart")
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		fail(c, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}
	userID := current(c).user.ID
	id := c.Param("id")

	s.mu.Lock()
	lines := s.carts[userID]
	found := false
	for i := range lines {
		if lines[i].serviceID == id {
			lines[i].quantity = req.Quantity
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "Item not found in cart")
		return
	}
	s.respondCart(c, userID, "Cart updated")
}

func (s *Server) removeCartItem(c *gin.Context) {
	userID := current(c).user.ID
	id := c.Param("id")

	s.mu.Lock()
	lines := s.carts[userID]
	kept := lines[:0]
	for _, l := range lines {
		if l.serviceID != id {
			kept = append(kept, l)
		}
	}
	s.carts[userID] = kept
	s.mu.Unlock()

	s.respondCart(c, userID, "Item removed from cart")
}

func (s *Server) clearCart(c *gin.Context) {
	s.mu.Lock()
	delete(s.carts, current(c).user.ID)
	s.mu.Unlock()
	ok(c, http.StatusOK, "Cart cleared", nil)
}
