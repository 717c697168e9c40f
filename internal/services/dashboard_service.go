package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"firedays/internal/config"
	"firedays/internal/dataset"
	apierrors "firedays/internal/errors"
	"firedays/internal/files"
	"firedays/internal/infrastructure"
	"firedays/pkg/contracts/domain"
	"firedays/pkg/contracts/events"
)

// Broadcaster publishes dataset lifecycle events to connected pages.
// *websocket.Hub satisfies this; tests use a stub.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
	ClientCount() int
}

// DashboardService owns the current dataset snapshot. Reads are served from
// an immutable *Snapshot behind a RWMutex; reloads build a fresh snapshot
// off to the side and swap it in, so a failed reload never disturbs the
// data being served.
type DashboardService struct {
	cfg       *config.Config
	logger    *slog.Logger
	discovery *files.Discovery
	filter    *dataset.CauseFilter
	hub       Broadcaster
	metrics   *infrastructure.BusinessMetrics

	mu       sync.RWMutex
	snapshot *dataset.Snapshot
	loaded   bool

	reloading atomic.Bool
}

// NewDashboardService creates the service. hub and metrics may be nil; the
// processor runs without either.
func NewDashboardService(cfg *config.Config, logger *slog.Logger, hub Broadcaster, metrics *infrastructure.BusinessMetrics) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "dashboard_service")),
		discovery: files.NewDiscovery(cfg.GetDataDir()),
		filter:    dataset.NewCauseFilter(cfg.Dataset.CauseKeywords),
		hub:       hub,
		metrics:   metrics,
		snapshot:  dataset.Empty(),
	}
}

// Discovery exposes the data-directory discovery for health checks.
func (s *DashboardService) Discovery() *files.Discovery {
	return s.discovery
}

// Loaded reports whether at least one load has completed successfully.
func (s *DashboardService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load reads the four source files concurrently, builds a new snapshot and
// swaps it in. Only one load runs at a time; a synchronous caller that
// collides with a running load gets ErrReloadInProgress instead of
// queueing. On failure the previous snapshot stays live.
func (s *DashboardService) Load(ctx context.Context, trigger string) error {
	if !s.reloading.CompareAndSwap(false, true) {
		return apierrors.ErrReloadInProgress
	}
	defer s.reloading.Store(false)
	return s.load(ctx, trigger)
}

func (s *DashboardService) load(ctx context.Context, trigger string) error {
	start := time.Now()
	s.logger.InfoContext(ctx, "Dataset load started", slog.String("trigger", trigger))
	s.broadcast(events.TypeReloading, events.ReloadStarted{Trigger: trigger})

	src, err := s.loadSources(ctx)
	if err != nil {
		infrastructure.RecordReloadMetrics(ctx, s.metrics, trigger, time.Since(start), 0, 0, err)
		s.broadcast(events.TypeReloadFailed, events.ReloadFailed{
			Trigger: trigger,
			Reason:  err.Error(),
		})
		s.logger.ErrorContext(ctx, "Dataset load failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		return fmt.Errorf("loading sources: %w", err)
	}

	snapshot := dataset.Build(src, time.Now())
	stats := snapshot.Stats()
	stats.Duration = time.Since(start)

	s.mu.Lock()
	s.snapshot = snapshot
	s.loaded = true
	s.mu.Unlock()

	for _, source := range src.Stats {
		infrastructure.RecordSourceMetrics(ctx, s.metrics, source.Source,
			int64(source.RowsParsed), int64(source.RowsDropped))
	}
	infrastructure.RecordReloadMetrics(ctx, s.metrics, trigger, stats.Duration,
		stats.Counties, stats.Rows, nil)

	s.broadcast(events.TypeReloaded, events.ReloadCompleted{
		Trigger:    trigger,
		Counties:   stats.Counties,
		Rows:       stats.Rows,
		DurationMS: float64(stats.Duration.Milliseconds()),
	})

	s.logger.InfoContext(ctx, "Dataset load completed",
		slog.String("trigger", trigger),
		slog.Int("counties", stats.Counties),
		slog.Int("rows", stats.Rows),
		slog.Int("first_year", stats.FirstYear),
		slog.Int("last_year", stats.LastYear),
		slog.Duration("duration", stats.Duration))
	return nil
}

// ReloadAsync kicks off a background reload. Requests that arrive while a
// load is already running coalesce onto it; the return value reports
// whether this call started a new load.
func (s *DashboardService) ReloadAsync(trigger string) bool {
	if !s.reloading.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.reloading.Store(false)
		if err := s.load(context.Background(), trigger); err != nil {
			s.logger.Error("Background reload failed",
				slog.String("trigger", trigger),
				slog.String("error", err.Error()))
		}
	}()
	return true
}

// loadSources resolves and parses the four source files concurrently.
func (s *DashboardService) loadSources(ctx context.Context) (dataset.Sources, error) {
	var (
		src dataset.Sources

		incidentsStats  domain.SourceStats
		countsStats     domain.SourceStats
		closuresStats   domain.SourceStats
		enrollmentStats domain.SourceStats
	)

	incidentsPath, err := s.discovery.ResolveSource(s.cfg.Dataset.IncidentsFile, "*incident*.csv")
	if err != nil {
		return src, err
	}
	countsPath, err := s.discovery.ResolveSource(s.cfg.Dataset.IncidentCountsFile, "*incident*count*.csv")
	if err != nil {
		return src, err
	}
	closuresPath, err := s.discovery.ResolveSource(s.cfg.Dataset.ClosureDaysFile, "*closure*.csv")
	if err != nil {
		return src, err
	}
	enrollmentPath, err := s.discovery.ResolveSource(s.cfg.Dataset.EnrollmentFile, "*.xlsx")
	if err != nil {
		return src, err
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.Incidents, incidentsStats, err = dataset.LoadIncidents(incidentsPath, s.logger)
		return err
	})
	g.Go(func() error {
		var err error
		src.IncidentCounts, countsStats, err = dataset.LoadIncidentCounts(countsPath, s.logger)
		return err
	})
	g.Go(func() error {
		var err error
		src.Closures, closuresStats, err = dataset.LoadClosures(closuresPath, s.filter, s.logger)
		return err
	})
	g.Go(func() error {
		var err error
		src.Enrollment, enrollmentStats, err = dataset.LoadEnrollment(enrollmentPath, s.logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return src, err
	}

	src.Stats = []domain.SourceStats{incidentsStats, countsStats, closuresStats, enrollmentStats}
	return src, nil
}

// Counties returns the sorted list of counties present in the snapshot.
func (s *DashboardService) Counties(ctx context.Context) ([]string, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	return snapshot.Counties(), nil
}

// Impact returns the per-year impact for one county, optionally limited to
// [from, to]. A zero bound means unbounded on that side.
func (s *DashboardService) Impact(ctx context.Context, county string, from, to int) (*domain.CountyImpact, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}

	county = dataset.NormalizeCounty(county)
	rows, err := snapshot.CountySeries(county, from, to)
	if err != nil {
		return nil, err
	}
	return &domain.CountyImpact{
		County: county,
		Series: domain.SeriesFrom(rows),
		Rows:   rows,
		Totals: domain.TotalsFor(rows),
	}, nil
}

// Statewide returns the per-year rollup across every county.
func (s *DashboardService) Statewide(ctx context.Context) (*domain.CountyImpact, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	rows := snapshot.Statewide()
	return &domain.CountyImpact{
		County: "all",
		Series: domain.SeriesFrom(rows),
		Rows:   rows,
		Totals: domain.TotalsFor(rows),
	}, nil
}

// TopIncidents returns the county's largest incidents by acres burned.
func (s *DashboardService) TopIncidents(ctx context.Context, county string, limit int) ([]domain.Incident, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	return snapshot.TopIncidents(dataset.NormalizeCounty(county), limit)
}

// HasCounty reports whether the county exists in the current snapshot.
func (s *DashboardService) HasCounty(county string) bool {
	s.mu.RLock()
	snapshot, loaded := s.snapshot, s.loaded
	s.mu.RUnlock()
	if !loaded {
		return false
	}
	return snapshot.HasCounty(dataset.NormalizeCounty(county))
}

// DataStatus describes the data directory and the last completed load.
type DataStatus struct {
	Loaded    bool                 `json:"loaded"`
	Reloading bool                 `json:"reloading"`
	Files     []files.FileInfo     `json:"files"`
	Stats     domain.SnapshotStats `json:"stats"`
}

// Status reports source files and load statistics. Unlike the query
// methods it works before the first load, so the page can show why the
// dashboard is empty.
func (s *DashboardService) Status(ctx context.Context) (*DataStatus, error) {
	sourceFiles, err := s.discovery.ListSourceFiles()
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list source files",
			slog.String("error", err.Error()))
		sourceFiles = nil
	}

	s.mu.RLock()
	snapshot, loaded := s.snapshot, s.loaded
	s.mu.RUnlock()

	return &DataStatus{
		Loaded:    loaded,
		Reloading: s.reloading.Load(),
		Files:     sourceFiles,
		Stats:     snapshot.Stats(),
	}, nil
}

func (s *DashboardService) current() (*dataset.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, apierrors.ErrSnapshotNotReady
	}
	return s.snapshot, nil
}

func (s *DashboardService) broadcast(eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(eventType, payload)
}
