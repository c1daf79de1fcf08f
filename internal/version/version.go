// Package version reports the hcm build identity. Values are stamped at
// build time:
//
//	go build -ldflags "-X github.com/OfekItzhaki/horizon-hcm/internal/version.Version=v1.2.0 \
//	  -X github.com/OfekItzhaki/horizon-hcm/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"runtime"
	"strings"
)

// Build metadata. Vars, not consts, so -ldflags -X can set them.
var (
	Version = "dev"
	Commit  = ""
)

// String returns the version with exactly one leading 'v'.
// Git tags already carry the prefix; dev builds and snapshots do not.
func String() string {
	return "v" + strings.TrimPrefix(Version, "v")
}

// Info is the build identity served on /health and printed by hcm version.
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Go      string `json:"go" yaml:"go"`
}

// Get returns the current build identity.
func Get() Info {
	return Info{Version: String(), Commit: Commit, Go: runtime.Version()}
}

// Full renders Info on one line, e.g. "v1.2.0 (abc1234, go1.24.2)".
func (i Info) Full() string {
	if i.Commit == "" {
		return i.Version + " (" + i.Go + ")"
	}
	return i.Version + " (" + i.Commit + ", " + i.Go + ")"
}
