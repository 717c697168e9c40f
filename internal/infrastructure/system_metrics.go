package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime gauges so memory or goroutine leaks
// show up on the metrics endpoint.
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryUsage     metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcPause         metric.Float64Histogram
	cpuCount        metric.Int64Gauge
	processUptime   metric.Float64Gauge
}

func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	var (
		sm      SystemMetrics
		errs    []error
		gauge   = func(name, desc string, opts ...metric.Int64GaugeOption) metric.Int64Gauge {
			g, err := meter.Int64Gauge(name, append([]metric.Int64GaugeOption{metric.WithDescription(desc)}, opts...)...)
			if err != nil {
				errs = append(errs, err)
			}
			return g
		}
	)

	sm.goRoutines = gauge("system_goroutines", "Number of active goroutines")
	sm.memoryUsage = gauge("system_memory_usage_bytes", "Memory usage in bytes", metric.WithUnit("By"))
	sm.memoryAllocated = gauge("system_memory_allocated_bytes", "Memory allocated by Go runtime in bytes", metric.WithUnit("By"))
	sm.memorySystem = gauge("system_memory_system_bytes", "Memory obtained from the OS in bytes", metric.WithUnit("By"))
	sm.cpuCount = gauge("system_cpu_count", "Number of logical CPUs")

	gcPause, err := meter.Float64Histogram("system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"), metric.WithUnit("s"))
	if err != nil {
		errs = append(errs, err)
	}
	sm.gcPause = gcPause

	processUptime, err := meter.Float64Gauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"), metric.WithUnit("s"))
	if err != nil {
		errs = append(errs, err)
	}
	sm.processUptime = processUptime

	if len(errs) > 0 {
		return nil, fmt.Errorf("create runtime instruments: %w", errs[0])
	}
	return &sm, nil
}

// SystemStats is one sample of runtime state.
type SystemStats struct {
	GoRoutines      int64
	MemoryUsage     int64
	MemoryAllocated int64
	MemorySystem    int64
	GCCount         uint32
	LastGCPause     time.Duration
	CPUCount        int
	ProcessUptime   time.Duration
	Timestamp       time.Time
}

// Collect samples the runtime and records every gauge.
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryUsage:     int64(memStats.Alloc),
		MemoryAllocated: int64(memStats.TotalAlloc),
		MemorySystem:    int64(memStats.Sys),
		GCCount:         memStats.NumGC,
		LastGCPause:     time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		CPUCount:        runtime.NumCPU(),
		ProcessUptime:   time.Since(startTime),
		Timestamp:       time.Now(),
	}

	sm.goRoutines.Record(ctx, stats.GoRoutines)
	sm.memoryUsage.Record(ctx, stats.MemoryUsage)
	sm.memoryAllocated.Record(ctx, stats.MemoryAllocated)
	sm.memorySystem.Record(ctx, stats.MemorySystem)
	sm.cpuCount.Record(ctx, int64(stats.CPUCount))
	sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())
	if stats.LastGCPause > 0 {
		sm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// FormatStats shapes a sample for the health stats endpoint.
func (stats *SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"runtime": map[string]interface{}{
			"goroutines":       stats.GoRoutines,
			"memory_usage_mb":  stats.MemoryUsage / 1024 / 1024,
			"memory_alloc_mb":  stats.MemoryAllocated / 1024 / 1024,
			"memory_system_mb": stats.MemorySystem / 1024 / 1024,
			"gc_count":         stats.GCCount,
			"last_gc_pause_ms": stats.LastGCPause.Milliseconds(),
		},
		"system": map[string]interface{}{
			"cpu_count":      stats.CPUCount,
			"uptime_seconds": stats.ProcessUptime.Seconds(),
		},
		"timestamp": stats.Timestamp.Format(time.RFC3339),
	}
}

// SystemMetricsCollector samples runtime metrics on a fixed interval in
// its own goroutine.
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	startTime time.Time
	interval  time.Duration

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}

	return &SystemMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start launches the sampling loop and returns immediately. The loop
// runs until Stop is called or ctx is cancelled.
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	smc.started = true
	go func() {
		defer close(smc.done)

		ticker := time.NewTicker(smc.interval)
		defer ticker.Stop()

		smc.metrics.Collect(ctx, smc.startTime)
		for {
			select {
			case <-ticker.C:
				smc.metrics.Collect(ctx, smc.startTime)
			case <-smc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts sampling and waits for the loop to exit. Safe to call more
// than once.
func (smc *SystemMetricsCollector) Stop() {
	smc.stopOnce.Do(func() {
		close(smc.stopCh)
	})
	if smc.started {
		<-smc.done
	}
}

// GetCurrentStats takes a fresh sample on demand.
func (smc *SystemMetricsCollector) GetCurrentStats(ctx context.Context) *SystemStats {
	return smc.metrics.Collect(ctx, smc.startTime)
}
