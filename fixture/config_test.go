package fixture

import (
	"testing"

	"github.com/kbukum/fixkit/query"
	"github.com/kbukum/fixkit/util"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if !cfg.CleanupEnabled() {
		t.Error("cleanup should default to enabled")
	}
	if cfg.MaxJoinDepth != query.DefaultMaxDepth {
		t.Errorf("MaxJoinDepth = %d, want %d", cfg.MaxJoinDepth, query.DefaultMaxDepth)
	}
	if cfg.ValidateEntities {
		t.Error("validation should default to off")
	}
}

func TestConfigCleanupDisabled(t *testing.T) {
	cfg := Config{Cleanup: util.Ptr(false)}
	cfg.ApplyDefaults()
	if cfg.CleanupEnabled() {
		t.Error("explicit cleanup=false must survive ApplyDefaults")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{MaxJoinDepth: 11}
	if err := cfg.Validate(); err == nil {
		t.Error("excessive join depth should fail validation")
	}

	cfg = Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}
