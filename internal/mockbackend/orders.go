package mockbackend

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"vastram/internal/api"
	"vastram/internal/logging"

	"github.com/gin-gonic/gin"
)

func (s *Server) createOrder(c *gin.Context) {
	var req api.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, "Order must contain at least one item")
		return
	}
	if strings.TrimSpace(req.PickupAddress) == "" || strings.TrimSpace(req.DeliveryAddress) == "" ||
		req.PickupDate == "" || req.PickupTime == "" {
		fail(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}
	userID := current(c).user.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	order := api.Order{
		Items:               make([]api.OrderItem, 0, len(req.Items)),
		Status:              api.StatusPending,
		PickupAddress:       req.PickupAddress,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           s.now().UTC(),
	}
	for _, it := range req.Items {
		svc, found := s.findService(it.Service)
		if !found || !svc.IsActive {
			fail(c, http.StatusBadRequest, fmt.Sprintf("Service %s is not available", it.Service))
			return
		}
		if it.Quantity < 1 {
			fail(c, http.StatusBadRequest, "Quantity must be at least 1")
			return
		}
		order.Items = append(order.Items, api.OrderItem{
			Service:     svc.ID,
			ServiceName: svc.Name,
			Quantity:    it.Quantity,
			Price:       svc.Price,
		})
		order.Subtotal += svc.Price * int64(it.Quantity)
	}
	order.Tax = (order.Subtotal*DefaultTaxRate + 50) / 100
	order.Total = order.Subtotal + order.Tax

	s.orderSeq++
	order.ID = fmt.Sprintf("ord%06d", s.orderSeq)
	order.OrderNumber = fmt.Sprintf("VST%s%04d", order.CreatedAt.Format("060102"), s.orderSeq)
	s.orders[userID] = append(s.orders[userID], order)

	logging.Mock("Order %s created for %s: total %d", order.OrderNumber, userID, order.Total)
	ok(c, http.StatusCreated, "Order created successfully", gin.H{"order": order})
}

func (s *Server) listOrders(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	all := s.orders[current(c).user.ID]
	matched := make([]api.Order, 0, len(all))
	for _, o := range all {
		if status == "" || o.Status == status {
			matched = append(matched, o)
		}
	}
	s.mu.Unlock()

	// Newest first.
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	ok(c, http.StatusOK, "", gin.H{
		"orders":     matched[start:end],
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": len(matched),
		},
	})
}

func (s *Server) getOrder(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders[current(c).user.ID] {
		if o.ID == id || o.OrderNumber == id {
			ok(c, http.StatusOK, "", gin.H{"order": o})
			return
		}
	}
	fail(c, http.StatusNotFound, "Order not found")
}

// SetOrderStatus advances an order through its lifecycle.
func (s *Server) SetOrderStatus(orderNumber, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uid, orders := range s.orders {
		for i := range orders {
			if orders[i].OrderNumber == orderNumber {
				s.orders[uid][i].Status = status
				return true
			}
		}
	}
	return false
}

func (s *Server) profile(c *gin.Context) {
	ok(c, http.StatusOK, "", gin.H{"user": s.userOf(current(c))})
}

func (s *Server) updateProfile(c *gin.Context) {
	var upd api.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	acct := current(c)
	s.mu.Lock()
	if upd.Name != "" {
		acct.user.Name = upd.Name
	}
	if upd.Phone != "" {
		acct.user.Phone = upd.Phone
	}
	if upd.Address != "" {
		acct.user.Address = upd.Address
	}
	u := acct.user
	s.mu.Unlock()
	ok(c, http.StatusOK, "Profile updated successfully", gin.H{"user": u})
}
