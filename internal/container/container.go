// Package container wires the application together. It owns component
// lifecycle: ordered initialization on Start and reverse-order
// teardown on Close.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/application/service"
	"github.com/expensedesk/expensedesk/internal/config"
	"github.com/expensedesk/expensedesk/internal/engine"
	"github.com/expensedesk/expensedesk/internal/infrastructure/store"
	httpiface "github.com/expensedesk/expensedesk/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config *config.Config
	logger *zap.Logger

	store    *store.SQLiteStore
	app      *service.App
	engine   *engine.Engine
	services *ServiceBundle
	server   *httpiface.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Expenses *service.ExpenseService
	Settings *service.SettingsService
}

// NewContainer creates a container from configuration. Components are
// not initialized until Start.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes all components in dependency order:
// 1. State store and the persisted document
// 2. Workflow engine
// 3. Application services
// 4. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	st, app, err := provideState(ctx, c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize state store: %w", err)
	}
	c.store = st
	c.app = app
	c.logger.Info("State store initialized")

	c.engine = engine.New(c.config.Workflow.StrictConditional, c.logger)
	c.services = provideServices(c.app, c.engine, c.logger)
	c.logger.Info("Application services initialized")

	server, err := provideServer(c.config, c.services, c.store, c.logger)
	if err != nil {
		c.store.Close()
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	c.server = server
	c.logger.Info("HTTP server initialized")

	c.ready.Store(true)
	return nil
}

// Close shuts the components down in reverse order.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(ctx); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Error("Failed to close state store", zap.Error(err))
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}
	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Server returns the HTTP server. Valid after Start.
func (c *Container) Server() *httpiface.Server {
	return c.server
}

// Services returns all application services. Valid after Start.
func (c *Container) Services() *ServiceBundle {
	return c.services
}
