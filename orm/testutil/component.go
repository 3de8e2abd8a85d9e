// Package testutil provides an in-memory database component for fixture
// suites: a sqlite-backed orm.DB with auto-migrated models, resettable and
// snapshottable between test cases.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/fixkit/component"
	"github.com/kbukum/fixkit/logger"
	"github.com/kbukum/fixkit/orm"
	"github.com/kbukum/fixkit/testutil"
)

// Component is a test database component backed by in-memory sqlite. It
// implements testutil.TestComponent so suites can manage it alongside the
// fixture module.
type Component struct {
	name   string
	models []interface{}
	log    *logger.Logger

	mu sync.RWMutex
	db *orm.DB
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// NewComponent creates a test database component. Each component gets its
// own shared-cache in-memory database named after the component, so parallel
// suites do not see each other's tables.
func NewComponent(name string) *Component {
	if name == "" {
		name = "database-test"
	}
	return &Component{name: name, log: logger.Nop()}
}

// WithModels registers models for auto-migration on Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithLogger attaches a logger for lifecycle events.
func (c *Component) WithLogger(log *logger.Logger) *Component {
	if log != nil {
		c.log = log
	}
	return c
}

// DB returns the open connection, or nil before Start.
func (c *Component) DB() *orm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Start opens the in-memory database and migrates registered models.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := orm.Open(ctx, orm.Config{
		DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", c.name),
	}, c.log)
	if err != nil {
		return fmt.Errorf("opening test database: %w", err)
	}

	if len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}

	c.db = db
	return nil
}

// Stop closes the database.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if db == nil {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	if err := db.PingContext(ctx); err != nil {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

// Reset deletes all rows from every table, keeping the schema.
func (c *Component) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return fmt.Errorf("component %s not started", c.name)
	}

	tables, err := c.tables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := c.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return nil
}

// Snapshot captures every row of every table.
func (c *Component) Snapshot(ctx context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, fmt.Errorf("component %s not started", c.name)
	}

	tables, err := c.tables(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string][]map[string]interface{}, len(tables))
	for _, table := range tables {
		var rows []map[string]interface{}
		if err := c.db.WithContext(ctx).Raw(fmt.Sprintf("SELECT * FROM %s", table)).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("snapshotting table %s: %w", table, err)
		}
		snapshot[table] = rows
	}
	return snapshot, nil
}

// Restore clears every table and re-inserts the snapshotted rows.
func (c *Component) Restore(ctx context.Context, snap interface{}) error {
	snapshot, ok := snap.(map[string][]map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected snapshot type %T", snap)
	}

	if err := c.Reset(ctx); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for table, rows := range snapshot {
		for _, row := range rows {
			if err := c.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
				return fmt.Errorf("restoring row into %s: %w", table, err)
			}
		}
	}
	return nil
}

func (c *Component) tables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.db.WithContext(ctx).
		Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}
