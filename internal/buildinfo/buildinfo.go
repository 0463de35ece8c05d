package buildinfo

import "time"

// Set via -ldflags at build time
var (
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Summary is reported by the health endpoint
func Summary() map[string]string {
	commit := CommitHash
	if commit == "" {
		commit = "dev"
	}
	return map[string]string{
		"commit":     commit,
		"build_time": BuildTime,
		"started_at": StartTime,
	}
}
