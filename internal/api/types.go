package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Membership tiers.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Order statuses.
const (
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusPickedUp       = "picked-up"
	StatusInProgress     = "in-progress"
	StatusReady          = "ready"
	StatusOutForDelivery = "out-for-delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

// OrderStatuses lists statuses in lifecycle order.
var OrderStatuses = []string{
	StatusPending, StatusConfirmed, StatusPickedUp, StatusInProgress,
	StatusReady, StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

// User is the signed-in customer profile.
type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	MembershipTier string    `json:"membershipTier,omitempty"`
	Role           string    `json:"role,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// Tier returns the membership tier, defaulting to bronze.
func (u User) Tier() string {
	if u.MembershipTier == "" {
		return TierBronze
	}
	return u.MembershipTier
}

// Service is a laundry / dry-cleaning offering.
type Service struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category"`
	Price          int64    `json:"price"`
	ProcessingTime string   `json:"processingTime,omitempty"`
	Features       []string `json:"features,omitempty"`
	IsActive       bool     `json:"isActive"`
}

// Category is a service category. The backend returns either bare names
// or {_id|name, count} objects; both decode here.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		c.Name = name
		return nil
	}
	var obj struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	if c.Name == "" {
		c.Name = obj.ID
	}
	c.Count = obj.Count
	return nil
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	Service     string `json:"service"`
	ServiceName string `json:"serviceName,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID                  string      `json:"_id"`
	OrderNumber         string      `json:"orderNumber"`
	Items               []OrderItem `json:"items"`
	Status              string      `json:"status"`
	Subtotal            int64       `json:"subtotal,omitempty"`
	Tax                 int64       `json:"tax,omitempty"`
	Total               int64       `json:"total"`
	PickupAddress       string      `json:"pickupAddress,omitempty"`
	PickupDate          string      `json:"pickupDate,omitempty"`
	PickupTime          string      `json:"pickupTime,omitempty"`
	DeliveryAddress     string      `json:"deliveryAddress,omitempty"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// StatusLabel renders "out-for-delivery" as "out for delivery".
func (o Order) StatusLabel() string {
	return strings.ReplaceAll(o.Status, "-", " ")
}

// ItemsSummary renders "Name (qty), ...".
func (o Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.ServiceName
		if name == "" {
			name = it.Service
		}
		parts = append(parts, name+" ("+strconv.Itoa(it.Quantity)+")")
	}
	return strings.Join(parts, ", ")
}

// RegisterRequest holds sign-up fields.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// ProfileUpdate holds editable profile fields.
type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// CreateOrderItem references a service by id.
type CreateOrderItem struct {
	Service  string `json:"service"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items               []CreateOrderItem `json:"items"`
	PickupAddress       string            `json:"pickupAddress"`
	PickupDate          string            `json:"pickupDate"`
	PickupTime          string            `json:"pickupTime"`
	DeliveryAddress     string            `json:"deliveryAddress"`
	SpecialInstructions string            `json:"specialInstructions,omitempty"`
}

// ServiceQuery filters GET /api/services.
type ServiceQuery struct {
	Category string `url:"category,omitempty"`
	Search   string `url:"search,omitempty"`
	Active   *bool  `url:"isActive,omitempty"`
}

// OrderQuery filters GET /orders.
type OrderQuery struct {
	Status string `url:"status,omitempty"`
	Page   int    `url:"page,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}
