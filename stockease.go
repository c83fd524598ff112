// Package stockease is the entry point of the StockEase client SDK. It
// assembles the session store, the authenticated request pipeline, and the
// typed services (auth, products) from a single configuration.
//
// Minimal usage:
//
//	client, err := stockease.New(
//	    stockease.WithBaseURL("https://stockease.example.com/api"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Shutdown(context.Background())
//
//	if _, err := client.Login(ctx, "admin", "secret"); err != nil {
//	    return err
//	}
//	items, err := client.Products.Search(ctx, "Laptop")
package stockease

import (
	"context"
	"fmt"

	"github.com/stockease/client-go/auth"
	"github.com/stockease/client-go/core"
	"github.com/stockease/client-go/logger"
	"github.com/stockease/client-go/products"
	"github.com/stockease/client-go/session"
	"github.com/stockease/client-go/telemetry"
	"github.com/stockease/client-go/transport"
)

// Re-exported configuration options, so most callers only import this
// package.
var (
	WithBaseURL         = core.WithBaseURL
	WithTimeout         = core.WithTimeout
	WithConfigFile      = core.WithConfigFile
	WithSessionProvider = core.WithSessionProvider
	WithSessionFile     = core.WithSessionFile
	WithRedisSession    = core.WithRedisSession
	WithTelemetry       = core.WithTelemetry
	WithLogLevel        = core.WithLogLevel
	WithLogPretty       = core.WithLogPretty
)

// Client bundles the SDK services over one session store and one pipeline
type Client struct {
	// Auth performs the login call; it does not persist sessions itself
	Auth *auth.Service

	// Products performs the product CRUD and search calls
	Products *products.Service

	// Pipeline is exposed for advanced customization, e.g. swapping the
	// HTTP client.
	Pipeline *transport.Pipeline

	config   *core.Config
	store    session.Store
	logger   core.Logger
	provider *telemetry.Provider
}

// New creates a Client from functional options layered over environment
// configuration. See core.NewConfig for the layering rules.
func New(opts ...core.Option) (*Client, error) {
	cfg, err := core.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	store, err := newStore(cfg, log)
	if err != nil {
		return nil, err
	}

	return assemble(cfg, store, log)
}

// NewWithStore creates a Client over a caller-provided session store,
// ignoring the config's session provider. Useful for tests and for
// embedding the SDK where session persistence is handled elsewhere.
func NewWithStore(store session.Store, opts ...core.Option) (*Client, error) {
	cfg, err := core.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	return assemble(cfg, store, log)
}

func assemble(cfg *core.Config, store session.Store, log core.Logger) (*Client, error) {
	pipeline := transport.NewPipeline(cfg.BaseURL, cfg.Timeout, store, log)

	client := &Client{
		Pipeline: pipeline,
		config:   cfg,
		store:    store,
		logger:   log,
	}

	if cfg.Telemetry.Enabled {
		provider, err := telemetry.Init(cfg.Telemetry, Version)
		if err != nil {
			return nil, err
		}
		client.provider = provider
		pipeline.Telemetry = provider
		pipeline.HTTPClient = telemetry.HTTPClient(cfg.Timeout, "stockease")
	}

	client.Auth = auth.NewService(pipeline, log)
	client.Products = products.NewService(pipeline, log)

	log.Debug("StockEase client assembled", map[string]interface{}{
		"operation":        "client_init",
		"base_url":         cfg.BaseURL,
		"session_provider": cfg.Session.Provider,
		"telemetry":        cfg.Telemetry.Enabled,
	})

	return client, nil
}

func newStore(cfg *core.Config, log core.Logger) (session.Store, error) {
	switch cfg.Session.Provider {
	case "memory":
		store := session.NewMemoryStore()
		store.SetLogger(log)
		return store, nil
	case "file":
		store := session.NewFileStore(cfg.Session.FilePath)
		store.SetLogger(log)
		return store, nil
	case "redis":
		return session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.Namespace, log)
	default:
		return nil, fmt.Errorf("%w: unknown session provider %q", core.ErrInvalidConfiguration, cfg.Session.Provider)
	}
}

// Login authenticates and persists the resulting session. This is the one
// place the login result is written to the store, keeping auth.Service
// itself side-effect free.
//
// A rejected login clears any previously stored session: the pipeline
// treats every 401 uniformly, so re-authenticating with wrong credentials
// while logged in leaves the client logged out.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	result, err := c.Auth.Login(ctx, username, password)
	if err != nil {
		return session.Session{}, err
	}

	current := session.Session{
		Token:    result.Token,
		Username: username,
		Role:     result.Role,
	}
	if err := c.store.Set(ctx, current); err != nil {
		return session.Session{}, fmt.Errorf("persisting session: %w", err)
	}
	return current, nil
}

// Logout clears the stored session. Safe to call when not logged in.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Session returns the currently stored session
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	return c.store.Get(ctx)
}

// Store exposes the underlying session store
func (c *Client) Store() session.Store {
	return c.store
}

// Shutdown flushes telemetry and releases store resources
func (c *Client) Shutdown(ctx context.Context) error {
	if closer, ok := c.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			c.logger.Warn("Session store close failed", map[string]interface{}{
				"operation": "client_shutdown",
				"error":     err.Error(),
			})
		}
	}
	if c.provider != nil {
		return c.provider.Shutdown(ctx)
	}
	return nil
}
