// Package system wires the storefront components together so the CLI, the
// interactive shop and the end-to-end tests share one composition.
package system

import (
	"context"
	"fmt"
	"net/http"

	"vastram/internal/api"
	"vastram/internal/cart"
	"vastram/internal/catalog"
	"vastram/internal/checkout"
	"vastram/internal/config"
	"vastram/internal/contact"
	"vastram/internal/logging"
	"vastram/internal/session"
	"vastram/internal/store"
	"vastram/internal/telemetry"
)

// Version is stamped into traces and the user agent.
var Version = "0.3.0"

// Storefront is a fully wired client instance.
type Storefront struct {
	Config   *config.Config
	DataDir  string
	Store    *store.LocalStore
	Client   *api.Client
	Session  *session.Provider
	Cart     *cart.Controller
	Catalog  *catalog.Catalog
	Checkout *checkout.Service
	Contact  *contact.Desk

	shutdownTracing telemetry.ShutdownFunc
}

// Options adjusts Boot for tests and special commands.
type Options struct {
	HTTPClient  *http.Client // optional
	Component   string       // trace component, e.g. "cli" or "shop"
	SkipRestore bool         // do not verify a stored credential
}

// Boot opens the local store, builds the backend client and the session,
// registers the cart as a session observer and restores any stored
// credential.
func Boot(ctx context.Context, cfg *config.Config, dataDir string, opts Options) (*Storefront, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	timer := logging.StartTimer(logging.CategoryBoot, "storefront boot")
	defer timer.Stop()

	// 1. Tracing first so every later call is covered.
	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:   cfg.Telemetry.Enabled,
		Path:      cfg.TracePath(dataDir),
		Version:   Version,
		Component: opts.Component,
	})
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("Tracing disabled: %v", err)
	}

	// 2. Local store (credential + theme)
	db, err := store.NewLocalStore(cfg.Storage.Driver, cfg.DatabasePath(dataDir))
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	// 3. Backend client
	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.GetAPITimeout(),
		HTTPClient: opts.HTTPClient,
		UserAgent:  "vastram-cli/" + Version,
	})
	if err != nil {
		db.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	// 4. Session and cart. The cart follows the session through Subscribe;
	// a 401 from any call invalidates the session.
	provider := session.NewProvider(client.Auth(), db)
	client.SetTokenSource(provider)
	client.OnUnauthorized(provider.Invalidate)

	controller := cart.NewController(client.Cart())
	provider.Subscribe(controller)

	// 5. Feature services
	var mailer contact.Mailer
	if cfg.IsContactMailEnabled() {
		mailer = contact.NewSendGridMailer(cfg.Contact.SendGridAPIKey)
	}

	sf := &Storefront{
		Config:          cfg,
		DataDir:         dataDir,
		Store:           db,
		Client:          client,
		Session:         provider,
		Cart:            controller,
		Catalog:         catalog.New(client.Services()),
		Checkout:        checkout.New(client.Orders(), controller, provider, cfg.Checkout.TaxRatePercent),
		Contact:         contact.NewDesk(mailer, cfg.Contact.From, cfg.Contact.To),
		shutdownTracing: shutdown,
	}

	if !opts.SkipRestore {
		if provider.Restore(ctx) {
			u, _ := provider.User()
			logging.Boot("Restored session for %s", u.Email)
		}
	}
	logging.Boot("Storefront ready: backend=%s store=%s", client.BaseURL(), db.Path())
	return sf, nil
}
