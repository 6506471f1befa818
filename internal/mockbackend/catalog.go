package mockbackend

import (
	"net/http"
	"strconv"
	"strings"

	"vastram/internal/api"

	"github.com/gin-gonic/gin"
)

func service(id, name, category string, price int64, processing, description string, features ...string) api.Service {
	return api.Service{
		ID:             id,
		Name:           name,
		Description:    description,
		Category:       category,
		Price:          price,
		ProcessingTime: processing,
		Features:       features,
		IsActive:       true,
	}
}

// SeedServices returns the default service catalog. Prices are in rupees.
func SeedServices() []api.Service {
	carpet := service("svc-carpet", "Carpet Shampoo", "home-essentials", 899, "5 days",
		"Seasonal offering, currently paused.")
	carpet.IsActive = false

	return []api.Service{
		service("svc-suit-2pc", "Two-Piece Suit Dry Clean", "suits", 499, "48 hours",
			"Jacket and trouser dry cleaned, steam pressed and returned on a hanger.",
			"Stain treatment", "Steam press", "Garment cover"),
		service("svc-blazer", "Blazer Dry Clean", "suits", 349, "48 hours",
			"Single blazer or sports coat, shape retained.",
			"Shape retention", "Steam press"),
		service("svc-shirt-wash", "Shirt Wash & Iron", "shirts", 79, "24 hours",
			"Machine wash with fabric conditioner and crisp iron finish.",
			"Collar care", "Folded or hanger"),
		service("svc-shirt-premium", "Premium Shirt Laundry", "shirts", 129, "24 hours",
			"Hand finished laundry for linen and fine cotton shirts.",
			"Hand finish", "Light starch on request"),
		service("svc-saree-silk", "Silk Saree Dry Clean", "traditional", 399, "72 hours",
			"Gentle dry clean for silk and zari sarees with roll press.",
			"Zari protection", "Roll press"),
		service("svc-lehenga", "Bridal Lehenga Care", "traditional", 1499, "5 days",
			"Specialist cleaning for embellished bridal wear.",
			"Embellishment check", "Padded packing"),
		service("svc-sherwani", "Sherwani Dry Clean", "traditional", 699, "72 hours",
			"Dry clean and press for sherwanis and kurta sets.",
			"Button care", "Steam press"),
		service("svc-curtains", "Curtain Cleaning (per panel)", "home-essentials", 249, "72 hours",
			"Curtains and drapes washed or dry cleaned by fabric.",
			"Pickup of hooks", "Pleat press"),
		service("svc-blanket", "Blanket & Quilt Wash", "home-essentials", 399, "72 hours",
			"Deep wash for blankets, quilts and comforters.",
			"Anti-allergen rinse"),
		carpet,
	}
}

func (s *Server) findService(id string) (api.Service, bool) {
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return api.Service{}, false
}

func (s *Server) listServices(c *gin.Context) {
	category := c.Query("category")
	search := strings.ToLower(c.Query("search"))
	activeOnly := true
	if v := c.Query("isActive"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			activeOnly = b
		}
	}

	s.mu.Lock()
	out := make([]api.Service, 0, len(s.services))
	for _, svc := range s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		if category != "" && category != "all" && svc.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(svc.Name+" "+svc.Description), search) {
			continue
		}
		out = append(out, svc)
	}
	s.mu.Unlock()

	ok(c, http.StatusOK, "", gin.H{"services": out})
}

type categoryCount struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	var cats []categoryCount
	index := map[string]int{}
	for _, svc := range s.services {
		if !svc.IsActive {
			continue
		}
		i, seen := index[svc.Category]
		if !seen {
			index[svc.Category] = len(cats)
			cats = append(cats, categoryCount{ID: svc.Category})
			i = len(cats) - 1
		}
		cats[i].Count++
	}
	s.mu.Unlock()

	ok(c, http.StatusOK, "", gin.H{"categories": cats})
}

func (s *Server) getService(c *gin.Context) {
	s.mu.Lock()
	svc, found := s.findService(c.Param("id"))
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "Service not found")
		return
	}
	ok(c, http.StatusOK, "", gin.H{"service": svc})
}
