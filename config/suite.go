package config

import (
	"fmt"

	"github.com/kbukum/fixkit/logger"
	"github.com/kbukum/fixkit/util"
)

// SuiteConfig contains the fields every fixkit-backed test suite needs.
// Suites extend this by embedding it in their own config structs:
//
//	type ordersConfig struct {
//	    config.SuiteConfig `yaml:",inline" mapstructure:",squash"`
//	    ORM orm.Config `yaml:"orm" mapstructure:"orm"`
//	}
type SuiteConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetSuiteConfig returns the base SuiteConfig. When embedded, the promoted
// method lets generic helpers reach the base fields.
func (c *SuiteConfig) GetSuiteConfig() *SuiteConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Embedding structs override this and call c.SuiteConfig.ApplyDefaults() first.
func (c *SuiteConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *SuiteConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "ci", "staging", "production"}
	if !util.StringInSlice(c.Environment, validEnvs) {
		return fmt.Errorf("config.environment must be one of [development, ci, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
