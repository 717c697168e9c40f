package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	contracts "firedays/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	dashboard *DashboardService
	hub       Broadcaster
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	SourceFiles      int     `json:"source_files"`
	SourceSizeBytes  int64   `json:"source_size_bytes"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service. dashboard and hub may be
// nil in tests; the corresponding checks degrade to "unavailable".
func NewHealthService(dashboard *DashboardService, hub Broadcaster, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	info := contracts.GetVersionInfo()
	return &HealthService{
		version:   info.Version,
		buildTime: info.BuildTime,
		dashboard: dashboard,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the service can answer data queries:
// the data directory must be reachable and a snapshot must have loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["data_dir"] = hs.checkDataDir()
	status.Services["snapshot"] = hs.checkSnapshot()
	status.Services["websocket"] = hs.checkWebSocket()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version and build information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns runtime and data-directory statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}

	if hs.dashboard != nil {
		sourceFiles, err := hs.dashboard.Discovery().ListSourceFiles()
		if err != nil {
			hs.logger.WarnContext(ctx, "Failed to list source files for stats",
				slog.String("error", err.Error()))
		} else {
			stats.SourceFiles = len(sourceFiles)
			for _, f := range sourceFiles {
				stats.SourceSizeBytes += f.Size
			}
		}
	}
	return stats, nil
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	if hs.dashboard == nil {
		return ServiceHealth{Status: "unavailable", Message: "dashboard service not configured"}
	}
	if !hs.dashboard.Discovery().Accessible() {
		return ServiceHealth{Status: "not_ready", Message: "data directory not accessible"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkSnapshot() ServiceHealth {
	if hs.dashboard == nil {
		return ServiceHealth{Status: "unavailable", Message: "dashboard service not configured"}
	}
	if !hs.dashboard.Loaded() {
		return ServiceHealth{Status: "not_ready", Message: "dataset not loaded yet"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "unavailable", Message: "websocket hub not configured"}
	}
	return ServiceHealth{Status: "ready"}
}
