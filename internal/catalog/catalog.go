// Package catalog loads the service list and categories and applies the
// category filter used by the services page.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vastram/internal/api"
	"vastram/internal/cart"
	"vastram/internal/logging"

	"golang.org/x/sync/errgroup"
)

// MsgLoadFailed is shown when the service list cannot be fetched.
const MsgLoadFailed = "Failed to load services. Please try again."

// All selects every category.
const All = "all"

// Option is one entry in the category picker.
type Option struct {
	ID   string
	Name string
}

// Options is the fixed category picker, in display order.
var Options = []Option{
	{ID: All, Name: "All Services"},
	{ID: "suits", Name: "Suits & Formal"},
	{ID: "shirts", Name: "Shirts & Tops"},
	{ID: "traditional", Name: "Traditional Wear"},
	{ID: "home-essentials", Name: "Home Essentials"},
}

// aliases maps the public link names (as used on the home page) onto
// catalog categories.
var aliases = map[string]string{
	"dry-cleaning":    "suits",
	"premium-laundry": "shirts",
	"bridal-wear":     "traditional",
	"home-essentials": "home-essentials",
}

// ResolveCategory maps a link parameter to a category id. Unknown values
// resolve to All.
func ResolveCategory(param string) string {
	p := strings.ToLower(strings.TrimSpace(param))
	if c, ok := aliases[p]; ok {
		return c
	}
	for _, o := range Options {
		if o.ID == p {
			return p
		}
	}
	return All
}

// OptionName returns the display name for a category id.
func OptionName(id string) string {
	for _, o := range Options {
		if o.ID == id {
			return o.Name
		}
	}
	return id
}

// Filter returns the services in category, or all of them for All.
func Filter(services []api.Service, category string) []api.Service {
	if category == "" || category == All {
		return services
	}
	out := make([]api.Service, 0, len(services))
	for _, s := range services {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// ItemFor projects a service onto a cart line.
func ItemFor(s api.Service) cart.Item {
	return cart.Item{
		ServiceID:      s.ID,
		Name:           s.Name,
		UnitPrice:      s.Price,
		Quantity:       1,
		Category:       s.Category,
		ProcessingTime: s.ProcessingTime,
	}
}

// Source is the backend surface the catalog reads from.
type Source interface {
	List(ctx context.Context, q api.ServiceQuery) ([]api.Service, error)
	Categories(ctx context.Context) ([]api.Category, error)
}

// Catalog caches the last successful load.
type Catalog struct {
	src Source

	mu         sync.RWMutex
	services   []api.Service
	categories []api.Category
	loading    bool
	errMsg     string
}

func New(src Source) *Catalog {
	return &Catalog{src: src}
}

// Load fetches services and categories concurrently. A categories failure
// is logged only; a services failure records MsgLoadFailed and is returned.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryCatalog, "catalog load")
	defer timer.Stop()

	var (
		services   []api.Service
		categories []api.Category
		catErr     error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s, err := c.src.List(egCtx, api.ServiceQuery{})
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		services = s
		return nil
	})
	eg.Go(func() error {
		cats, err := c.src.Categories(egCtx)
		if err != nil {
			catErr = err
			return nil
		}
		categories = cats
		return nil
	})
	err := eg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if catErr != nil {
		logging.CatalogError("Failed to load categories: %v", catErr)
	} else {
		c.categories = categories
	}
	if err != nil {
		logging.CatalogError("Failed to load services: %v", err)
		c.errMsg = MsgLoadFailed
		return err
	}
	c.services = services
	logging.Catalog("Loaded %d services, %d categories", len(services), len(categories))
	return nil
}

// Services returns the cached services in category.
func (c *Catalog) Services(category string) []api.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Service(nil), Filter(c.services, category)...)
}

// Find returns a cached service by id.
func (c *Catalog) Find(id string) (api.Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.ID == id {
			return s, true
		}
	}
	return api.Service{}, false
}

func (c *Catalog) Categories() []api.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Category(nil), c.categories...)
}

func (c *Catalog) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the recorded load failure message.
func (c *Catalog) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}
