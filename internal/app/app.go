package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"firedays/internal/config"
	apierrors "firedays/internal/errors"
	"firedays/internal/files"
	"firedays/internal/infrastructure"
	customMiddleware "firedays/internal/middleware"
	"firedays/internal/services"
	handlers "firedays/internal/transport/http"
	ws "firedays/internal/websocket"
	contracts "firedays/pkg/contracts"
)

const AppName = "FireDays - California Wildfire School Impact Dashboard"

// Application is the composition root for the web server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Hub       *ws.Hub
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Watcher   *files.Watcher

	FrontendFS fs.FS

	metrics          *infrastructure.BusinessMetrics
	systemCollector  *infrastructure.SystemMetricsCollector
	systemCollectCtx context.CancelFunc
}

// NewApplication loads configuration and builds a fully wired application.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg, frontendFS)
}

// NewApplicationWithConfig builds the application from an explicit config.
// Tests use this to point the app at temporary directories.
func NewApplicationWithConfig(cfg *config.Config, frontendFS fs.FS) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths := config.GetPathsFrom(cfg.Paths.ExecutableDir)
	paths.DataDir = cfg.GetDataDir()
	paths.ReportsDir = cfg.GetReportsDir()
	paths.LogsDir = cfg.GetLogsDir()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	systemCollector, err := infrastructure.NewSystemMetricsCollector(otelProviders.Meter, 30*time.Second)
	if err != nil {
		logger.Warn("System metrics collector unavailable",
			slog.String("error", err.Error()))
	}

	hub := ws.NewHub(logger)
	dashboard := services.NewDashboardService(cfg, logger, hub, metrics)
	health := services.NewHealthService(dashboard, hub, logger)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Hub:           hub,
		Dashboard:     dashboard,
		Health:        health,
		FrontendFS:    frontendFS,
		metrics:       metrics,

		systemCollector: systemCollector,
	}

	if cfg.Watcher.Enabled {
		app.Watcher = files.NewWatcher(
			cfg.GetDataDir(),
			cfg.Watcher.Debounce,
			clockwork.NewRealClock(),
			logger,
			func() {
				if !dashboard.ReloadAsync("watcher") {
					logger.Debug("Watcher trigger coalesced into running reload")
				}
			},
		)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that does not wrap the ResponseWriter may run before
	// the websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.Hub, a.Config, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws", wsHandler.ServeHTTP)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware",
				slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupFrontendRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
	dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Logger, errorHandler, validation)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(validation.ValidateRequest)
		r.Use(customMiddleware.ContentTypeValidator("application/json"))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/stats", healthHandler.SystemStats)
		r.Get("/version", healthHandler.Version)

		dashboardHandler.RegisterRoutes(r)

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	})
}

// setupFrontendRoutes serves the embedded single-page frontend.
func (a *Application) setupFrontendRoutes(r chi.Router) {
	if a.FrontendFS == nil {
		return
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		a.serveFrontendFile(w, req, "index.html")
	})
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, "/static/")
		if name == "" || strings.Contains(name, "..") {
			http.NotFound(w, req)
			return
		}
		a.serveFrontendFile(w, req, name)
	})
}

func (a *Application) serveFrontendFile(w http.ResponseWriter, r *http.Request, name string) {
	file, err := a.FrontendFS.Open(name)
	if err != nil {
		a.Logger.WarnContext(r.Context(), "Frontend file not found",
			slog.String("file", name),
			slog.String("error", err.Error()))
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".css":
		w.Header().Set("Content-Type", "text/css")
	case ".svg":
		w.Header().Set("Content-Type", "image/svg+xml")
	case ".ico":
		w.Header().Set("Content-Type", "image/x-icon")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	io.Copy(w, file)
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the hub, the watcher, the initial dataset load and the
// HTTP server. A server error cancels the context so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.GetDataDir()),
		slog.String("level", a.Config.Logging.Level))

	a.Hub.Start()

	if a.systemCollector != nil {
		collectCtx, collectCancel := context.WithCancel(context.Background())
		a.systemCollectCtx = collectCancel
		a.systemCollector.Start(collectCtx)
	}

	if a.Watcher != nil {
		if err := a.Watcher.Start(); err != nil {
			// The watcher is a convenience; the reload endpoint still works.
			a.Logger.Warn("File watcher failed to start",
				slog.String("error", err.Error()))
		}
	}

	// The first load happens in the background so the server answers health
	// checks immediately; queries return 503 until it completes.
	go func() {
		if err := a.Dashboard.Load(context.Background(), "startup"); err != nil {
			a.Logger.Error("Initial dataset load failed",
				slog.String("error", err.Error()))
		}
	}()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	if a.systemCollector != nil {
		a.systemCollector.Stop()
		if a.systemCollectCtx != nil {
			a.systemCollectCtx()
		}
	}
	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
