package contracts

import "runtime"

const (
	// Version is the application release version.
	Version = "0.3.0"

	// DataFormatVersion tags exported report files.
	DataFormatVersion = "v1"

	// APIVersion covers the HTTP and WebSocket surfaces together; they
	// ship as one unit.
	APIVersion = "v1"
)

// Set at build time via -ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the payload of the version endpoint.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo combines compile-time and runtime version details.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}
