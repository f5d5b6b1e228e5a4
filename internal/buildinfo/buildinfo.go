package buildinfo

import "time"

// Filled by -ldflags "-X github.com/xelth-com/soletrack/internal/buildinfo.CommitHash=..."
var (
	BuildTime  string
	CommitTime string
	CommitHash string
)

// StartTime is the process start in RFC3339
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Version returns the short commit hash, or "dev" for local builds
func Version() string {
	if CommitHash == "" {
		return "dev"
	}
	return CommitHash
}

// Fields is the build metadata reported by /api/status
func Fields() map[string]interface{} {
	return map[string]interface{}{
		"version":     Version(),
		"build_time":  BuildTime,
		"commit_time": CommitTime,
		"start_time":  StartTime,
	}
}
