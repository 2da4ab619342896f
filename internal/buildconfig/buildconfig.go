// Package buildconfig exposes values stamped in at link time:
//
//	go build -ldflags "-X github.com/nia-core/beliefgate/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/nia-core/beliefgate/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns the build stamp as reported by /health.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
	}
	if date != "" {
		info["build_date"] = date
	}
	return info
}

// String renders the stamp on one line, e.g. "v1.2.0 (abc1234)".
func String() string {
	if date != "" {
		return fmt.Sprintf("%s (%s, built %s)", version, commit, date)
	}
	return fmt.Sprintf("%s (%s)", version, commit)
}
