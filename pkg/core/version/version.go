// ============================================================================
// robbot - Classroom chat bot
// ============================================================================
//
// Package:     version
// Description: Central version management for all components
// License:     MIT
// ============================================================================

package version

import "fmt"

// Version constants for all robbot components
const (
	// Platform version
	Platform = "1.2.0"

	// Component versions
	Gateway     = "1.2.0"
	Interpreter = "1.1.0"
	Scheduler   = "1.0.0"
	Admin       = "1.0.0"
)

// Build metadata, set with -ldflags "-X github.com/msto63/robbot/pkg/core/version.Commit=..."
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "gateway":
		return Gateway
	case "interpreter":
		return Interpreter
	case "scheduler":
		return Scheduler
	case "admin":
		return Admin
	default:
		return Platform
	}
}

// String returns the platform version with build metadata
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Platform, Commit, BuildDate)
}
