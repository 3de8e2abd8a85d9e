package fixture

import (
	"fmt"

	"github.com/kbukum/fixkit/query"
	"github.com/kbukum/fixkit/util"
)

// Config holds fixture module configuration.
type Config struct {
	// Cleanup wraps every scenario in a transaction rolled back afterwards.
	// Defaults to true; disable it for suites that inspect the database
	// after the run.
	Cleanup *bool `mapstructure:"cleanup"`

	// MaxJoinDepth bounds association hops in criteria paths.
	MaxJoinDepth int `mapstructure:"max_join_depth"`

	// ValidateEntities runs struct validation before persisting fixtures.
	ValidateEntities bool `mapstructure:"validate_entities"`

	// GrabRegistersEntities also records entities fetched with the Grab
	// operations in the registry, not just created ones.
	GrabRegistersEntities bool `mapstructure:"grab_registers_entities"`
}

// ApplyDefaults sets sensible defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Cleanup == nil {
		c.Cleanup = util.Ptr(true)
	}
	if c.MaxJoinDepth <= 0 {
		c.MaxJoinDepth = query.DefaultMaxDepth
	}
}

// CleanupEnabled reports whether scenario rollback is on.
func (c *Config) CleanupEnabled() bool {
	return c.Cleanup == nil || *c.Cleanup
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.MaxJoinDepth < 0 {
		return fmt.Errorf("max_join_depth must be >= 0")
	}
	if c.MaxJoinDepth > 10 {
		return fmt.Errorf("max_join_depth %d is unreasonably deep; the limit is 10", c.MaxJoinDepth)
	}
	return nil
}
