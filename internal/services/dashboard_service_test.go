package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"firedays/internal/config"
	apierrors "firedays/internal/errors"
	"firedays/pkg/contracts/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBroadcaster records every event published by the service.
type stubBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *stubBroadcaster) BroadcastEvent(eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *stubBroadcaster) ClientCount() int { return 0 }

func (b *stubBroadcaster) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

func writeFixtureSources(t *testing.T, dataDir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	incidents := "Name,Counties,ArchiveYear,Started,AcresBurned\n" +
		"Camp Fire,Butte,2018,2018-11-08,\"153,336\"\n" +
		"Kincade Fire,Sonoma,2019,2019-10-23,77758\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "incidents.csv"), []byte(incidents), 0o644))

	counts := "County,Year,Incidents\n" +
		"Butte,2018,3\n" +
		"Sonoma,2019,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "incident_counts.csv"), []byte(counts), 0o644))

	closures := "County,Year,Days,Reason\n" +
		"Butte,2018,10,Wildfire\n" +
		"Butte,2019,5,wildfire smoke\n" +
		"Sonoma,2019,2,Fire\n" +
		"Sonoma,2018,4,Flood\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "closure_days.csv"), []byte(closures), 0o644))

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetName(sheet, "Enrollment"))
	require.NoError(t, f.SetSheetRow("Enrollment", "A1", &[]interface{}{"County", 2018, 2019}))
	require.NoError(t, f.SetSheetRow("Enrollment", "A2", &[]interface{}{"Butte", 1000, 900}))
	require.NoError(t, f.SetSheetRow("Enrollment", "A3", &[]interface{}{"Sonoma", 2000, 2100}))
	require.NoError(t, f.SaveAs(filepath.Join(dataDir, "enrollment.xlsx")))
	require.NoError(t, f.Close())
}

func newTestService(t *testing.T, hub Broadcaster) *DashboardService {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	writeFixtureSources(t, dataDir)

	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	return NewDashboardService(cfg, testLogger(), hub, nil)
}

func TestDashboardService_Load(t *testing.T) {
	hub := &stubBroadcaster{}
	svc := newTestService(t, hub)

	require.NoError(t, svc.Load(context.Background(), "startup"))
	assert.True(t, svc.Loaded())

	counties, err := svc.Counties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"butte", "sonoma"}, counties)

	ev := hub.Events()
	require.Len(t, ev, 2)
	assert.Equal(t, events.TypeReloading, ev[0])
	assert.Equal(t, events.TypeReloaded, ev[1])
}

func TestDashboardService_QueriesBeforeLoad(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Counties(context.Background())
	assert.ErrorIs(t, err, apierrors.ErrSnapshotNotReady)

	_, err = svc.Impact(context.Background(), "butte", 0, 0)
	assert.ErrorIs(t, err, apierrors.ErrSnapshotNotReady)

	_, err = svc.Statewide(context.Background())
	assert.ErrorIs(t, err, apierrors.ErrSnapshotNotReady)
}

func TestDashboardService_Impact(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Load(context.Background(), "startup"))

	impact, err := svc.Impact(context.Background(), "Butte", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "butte", impact.County)
	require.Len(t, impact.Rows, 2)

	first := impact.Rows[0]
	assert.Equal(t, 2018, first.Year)
	assert.Equal(t, 3, first.Incidents)
	assert.InDelta(t, 153336, first.AcresBurned, 0.01)
	assert.InDelta(t, 10, first.ClosureDays, 0.001)
	assert.Equal(t, 1000, first.Enrollment)
	assert.InDelta(t, 10000, first.StudentDaysLost, 0.001)
	assert.InDelta(t, 10, first.DaysLostPerStudent, 0.001)

	// The flood closure must not count for sonoma 2018.
	sonoma, err := svc.Impact(context.Background(), "sonoma", 2018, 2018)
	require.NoError(t, err)
	require.Len(t, sonoma.Rows, 1)
	assert.Zero(t, sonoma.Rows[0].ClosureDays)
}

func TestDashboardService_ImpactUnknownCounty(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Load(context.Background(), "startup"))

	_, err := svc.Impact(context.Background(), "atlantis", 0, 0)
	assert.ErrorIs(t, err, apierrors.ErrCountyNotFound)
}

func TestDashboardService_Statewide(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Load(context.Background(), "startup"))

	statewide, err := svc.Statewide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "all", statewide.County)
	require.Len(t, statewide.Rows, 2)

	// 2019: butte 5*900 + sonoma 2*2100 student-days lost.
	assert.Equal(t, 2019, statewide.Rows[1].Year)
	assert.InDelta(t, 5*900+2*2100, statewide.Rows[1].StudentDaysLost, 0.001)
}

func TestDashboardService_TopIncidents(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Load(context.Background(), "startup"))

	incidents, err := svc.TopIncidents(context.Background(), "butte", 5)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "Camp Fire", incidents[0].Name)
}

func TestDashboardService_LoadMissingSource(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	writeFixtureSources(t, dataDir)
	require.NoError(t, os.Remove(filepath.Join(dataDir, "closure_days.csv")))

	hub := &stubBroadcaster{}
	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	svc := NewDashboardService(cfg, testLogger(), hub, nil)

	err := svc.Load(context.Background(), "startup")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrSourceMissing)
	assert.False(t, svc.Loaded())

	ev := hub.Events()
	require.Len(t, ev, 2)
	assert.Equal(t, events.TypeReloadFailed, ev[1])
}

func TestDashboardService_ReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Load(context.Background(), "startup"))

	// Break a source, reload, and confirm the old snapshot still serves.
	path := filepath.Join(svc.Discovery().DataDir(), "closure_days.csv")
	require.NoError(t, os.Remove(path))

	err := svc.Load(context.Background(), "watcher")
	require.Error(t, err)

	counties, err := svc.Counties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"butte", "sonoma"}, counties)
}

func TestDashboardService_ReloadAsync(t *testing.T) {
	svc := newTestService(t, nil)

	assert.True(t, svc.ReloadAsync("api"))
	assert.Eventually(t, svc.Loaded, 5*time.Second, 20*time.Millisecond)
}

func TestDashboardService_ReloadCoalesces(t *testing.T) {
	svc := newTestService(t, nil)

	// Simulate a load in flight: a second trigger must coalesce onto it
	// rather than start another or fail.
	require.True(t, svc.reloading.CompareAndSwap(false, true))
	assert.False(t, svc.ReloadAsync("api"))
	assert.ErrorIs(t, svc.Load(context.Background(), "api"), apierrors.ErrReloadInProgress)
	svc.reloading.Store(false)

	assert.True(t, svc.ReloadAsync("api"))
	assert.Eventually(t, svc.Loaded, 5*time.Second, 20*time.Millisecond)
}

func TestDashboardService_SourceGlobFallback(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	writeFixtureSources(t, dataDir)

	// Off-name sources must still resolve through the glob patterns.
	require.NoError(t, os.Rename(
		filepath.Join(dataDir, "incident_counts.csv"),
		filepath.Join(dataDir, "ca_incident_count_2019.csv")))
	require.NoError(t, os.Rename(
		filepath.Join(dataDir, "closure_days.csv"),
		filepath.Join(dataDir, "school_closure_log.csv")))

	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	svc := NewDashboardService(cfg, testLogger(), nil, nil)

	require.NoError(t, svc.Load(context.Background(), "startup"))

	counties, err := svc.Counties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"butte", "sonoma"}, counties)
}

func TestDashboardService_Status(t *testing.T) {
	svc := newTestService(t, nil)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Loaded)
	assert.Len(t, status.Files, 4)

	require.NoError(t, svc.Load(context.Background(), "startup"))

	status, err = svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Loaded)
	assert.Equal(t, 2, status.Stats.Counties)
	assert.Equal(t, 4, status.Stats.Rows)
	require.Len(t, status.Stats.Sources, 4)
}

func TestDashboardService_HasCounty(t *testing.T) {
	svc := newTestService(t, nil)
	assert.False(t, svc.HasCounty("butte"))

	require.NoError(t, svc.Load(context.Background(), "startup"))
	assert.True(t, svc.HasCounty("Butte"))
	assert.False(t, svc.HasCounty("atlantis"))
}
