package orm

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/fixkit/component"
	"github.com/kbukum/fixkit/logger"
)

// Component wraps DB with lifecycle management so the database connection
// can be registered alongside other suite infrastructure.
type Component struct {
	name string
	cfg  Config
	log  *logger.Logger

	mu sync.RWMutex
	db *DB
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a database component. The connection opens on Start.
func NewComponent(name string, cfg Config, log *logger.Logger) *Component {
	if name == "" {
		name = "database"
	}
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()
	return &Component{
		name: name,
		cfg:  cfg,
		log:  log.WithComponent(name),
	}
}

// Name returns the component's registration name.
func (c *Component) Name() string { return c.name }

// DB returns the open connection, or nil before Start.
func (c *Component) DB() *DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Start validates the configuration and opens the connection.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db
	c.log.Info("database component started", logger.Fields("driver", c.cfg.Driver))
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	c.log.Info("database component stopped")
	return nil
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if db == nil {
		return component.Health{
			Name:    c.name,
			Status:  component.StatusUnhealthy,
			Message: "not started",
		}
	}
	if err := db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.name,
			Status:  component.StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

// Describe reports the component for suite startup logging.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.name,
		Type:    "database",
		Details: fmt.Sprintf("%s %s", c.cfg.Driver, c.cfg.DSN),
	}
}
