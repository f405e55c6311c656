// Package version exposes build metadata for the tradeops service.
// The variables are populated via -ldflags at build time.
package version

import (
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

var (
	// Version is a semantic version or a git describe string (e.g. "v1.0.0" or "a1b2c3d").
	// Set via: -ldflags "-X tradeops/internal/version.Version=..."
	Version = "unknown"

	// BuildDate is the ISO 8601 UTC build timestamp.
	// Set via: -ldflags "-X tradeops/internal/version.BuildDate=..."
	BuildDate = "unknown"

	// GitCommit is the source commit SHA.
	// Set via: -ldflags "-X tradeops/internal/version.GitCommit=..."
	GitCommit = "unknown"
)

// Info holds build metadata plus the per-process instance identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns build metadata. Instance ID and hostname are computed once.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.New().String(),
			Hostname:   getHostname(),
		}
	})
	return info
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// Canonical returns the version without a leading "v" when it parses as
// semver, so health responses report "1.2.3" for both "v1.2.3" and "1.2.3".
// Non-semver values such as commit hashes are returned unchanged.
func (i Info) Canonical() string {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return i.Version
	}
	return v.String()
}

func (i Info) String() string {
	return fmt.Sprintf("tradeops version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}
