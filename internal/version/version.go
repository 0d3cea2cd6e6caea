package version

import "fmt"

// Version is stamped at release time:
// go build -ldflags "-X git.home.luguber.info/inful/assetbuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata stamped alongside Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the --version line.
func String() string {
	return fmt.Sprintf("assetbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
