// Package mockbackend is an in-memory implementation of the Vastram REST
// backend. It serves the same envelope and routes as the real service and
// is used by tests and by `vastram mock-server`.
package mockbackend

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"vastram/internal/api"
	"vastram/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BasePath is where the backend mounts its routes. Clients use
	// http://host:port/api as their base URL.
	BasePath = "/api"

	DefaultTokenTTL = 7 * 24 * time.Hour
	DefaultTaxRate  = 18

	ctxAccount = "account"
)

// DemoUser is seeded when Options.SeedDemoUser is set.
var DemoUser = api.RegisterRequest{
	Name:     "Demo Customer",
	Email:    "demo@vastram.in",
	Password: "vastram123",
	Phone:    "+91 98450 12345",
	Address:  "12 MG Road, Bangalore 560001",
}

// Options configures a Server.
type Options struct {
	Secret       []byte        // HS256 signing key; random when empty
	TokenTTL     time.Duration // defaults to DefaultTokenTTL
	Services     []api.Service // defaults to SeedServices()
	AllowOrigins []string
	SeedDemoUser bool
	BcryptCost   int // defaults to bcrypt.DefaultCost
	Debug        bool
}

type account struct {
	user         api.User
	passwordHash []byte
}

type cartLine struct {
	serviceID string
	quantity  int
}

// Server holds all backend state in memory. Safe for concurrent use.
type Server struct {
	secret []byte
	ttl    time.Duration
	cost   int
	engine *gin.Engine

	mu       sync.Mutex
	services []api.Service
	accounts map[string]*account // by email
	byID     map[string]*account
	carts    map[string][]cartLine
	orders   map[string][]api.Order
	revoked  map[string]bool
	faults   map[string]fault
	orderSeq int
	userSeq  int
	now      func() time.Time
}

type fault struct {
	status  int
	message string
}

// New builds a server with its routes registered.
func New(opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		secret:   opts.Secret,
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
		services: opts.Services,
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
		carts:    make(map[string][]cartLine),
		orders:   make(map[string][]api.Order),
		revoked:  make(map[string]bool),
		faults:   make(map[string]fault),
		now:      time.Now,
	}
	if len(s.secret) == 0 {
		s.secret = randomSecret()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.services == nil {
		s.services = SeedServices()
	}
	if opts.SeedDemoUser {
		if _, err := s.createAccount(DemoUser); err != nil {
			logging.Get(logging.CategoryMock).Error("seed demo user: %v", err)
		}
	}
	s.engine = s.routes(opts)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("vastram-mock"))
	r.Use(requestLogger())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(s.injectFaults())

	base := r.Group(BasePath)
	base.GET("/health", func(c *gin.Context) { ok(c, http.StatusOK, "OK", nil) })

	// ===============
	// || Public    ||
	// ===============
	base.POST("/auth/register", s.register)
	base.POST("/auth/login", s.login)
	base.GET("/api/services", s.listServices)
	base.GET("/api/services/categories", s.listCategories)
	base.GET("/api/services/:id", s.getService)

	// ===============
	// || Protected ||
	// ===============
	protected := base.Group("/")
	protected.Use(s.requireAuth())
	protected.GET("/auth/me", s.me)
	protected.POST("/auth/logout", s.logout)

	protected.GET("/cart", s.getCart)
	protected.DELETE("/cart", s.clearCart)
	protected.POST("/cart/items", s.addCartItem)
	protected.PUT("/cart/items/:id", s.updateCartItem)
	protected.DELETE("/cart/items/:id", s.removeCartItem)

	protected.POST("/orders", s.createOrder)
	protected.GET("/orders", s.listOrders)
	protected.GET("/orders/:id", s.getOrder)

	protected.GET("/users/profile", s.profile)
	protected.PUT("/users/profile", s.updateProfile)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})
	return r
}

// =============================================================================
// ENVELOPE
// =============================================================================

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log := logging.WithRequestID(logging.CategoryMock, c.GetHeader("X-Request-ID"))
		log.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// FailNext makes the next request matching method and path (relative to
// BasePath, e.g. "/cart/items") fail with status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey(method, path)] = fault{status: status, message: message}
}

func faultKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func (s *Server) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := faultKey(c.Request.Method, strings.TrimPrefix(c.Request.URL.Path, BasePath))
		s.mu.Lock()
		f, hit := s.faults[key]
		if hit {
			delete(s.faults, key)
		}
		s.mu.Unlock()
		if hit {
			logging.MockDebug("Injected fault for %s: %d", key, f.status)
			fail(c, f.status, f.message)
			return
		}
		c.Next()
	}
}
