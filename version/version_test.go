package version

import (
	"strings"
	"testing"
)

func TestResolveDefaults(t *testing.T) {
	info := Resolve()
	if info.Version == "" {
		t.Error("Version should never be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should be populated from build info")
	}
}

func TestShortContainsVersion(t *testing.T) {
	info := Resolve()
	short := Short()
	if !strings.HasPrefix(short, info.Version) {
		t.Errorf("Short() = %q, should start with %q", short, info.Version)
	}
}
