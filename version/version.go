// Package version reports which fixkit build a suite is running, for
// startup logs and exported telemetry.
package version

import (
	"fmt"
	"runtime/debug"
)

const modulePath = "github.com/kbukum/fixkit"

// Version is overridable at build time with -ldflags. When left at "dev"
// the module version is resolved from build info instead.
var Version = "dev"

// Info describes the running fixkit build.
type Info struct {
	Version     string `json:"version"`
	GoVersion   string `json:"go_version"`
	VCSRevision string `json:"vcs_revision,omitempty"`
	Dirty       bool   `json:"dirty,omitempty"`
}

// Resolve gathers build information for the fixkit module. When fixkit is a
// dependency of the test binary the version comes from the consuming
// module's requirements; in fixkit's own tests it stays "dev".
func Resolve() Info {
	info := Info{Version: Version}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion

	if info.Version == "dev" {
		for _, dep := range bi.Deps {
			if dep.Path == modulePath && dep.Version != "" {
				info.Version = dep.Version
				break
			}
		}
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev := setting.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}
			info.VCSRevision = rev
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// Short renders a one-token version string for log fields.
func Short() string {
	info := Resolve()
	switch {
	case info.VCSRevision == "":
		return info.Version
	case info.Dirty:
		return fmt.Sprintf("%s-%s-dirty", info.Version, info.VCSRevision)
	default:
		return fmt.Sprintf("%s-%s", info.Version, info.VCSRevision)
	}
}
