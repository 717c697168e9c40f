package config

import "time"

// Application constants for the FireDays dashboard
const (
	// Application Info
	AppName = "FireDays"

	// DefaultPort matches the port the dashboard has always listened on;
	// the PORT environment variable overrides it in deployment.
	DefaultPort = 8050

	// Source files expected inside the data directory
	DefaultIncidentsFile      = "incidents.csv"
	DefaultIncidentCountsFile = "incident_counts.csv"
	DefaultClosureDaysFile    = "closure_days.csv"
	DefaultEnrollmentFile     = "enrollment.xlsx"

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints (internal)
	APIBasePath      = "/api"
	CountiesEndpoint = "/api/counties"
	ImpactEndpoint   = "/api/impact"
	DataEndpoint     = "/api/data"
	HealthEndpoint   = "/api/health"
	MetricsEndpoint  = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// DefaultCauseKeywords returns the keyword set that marks a closure reason
// as wildfire-related. Matching is case-insensitive substring; "smoke" is
// included because districts report smoke-day closures separately from the
// fire itself.
func DefaultCauseKeywords() []string {
	return []string{"fire", "wildfire", "smoke"}
}
