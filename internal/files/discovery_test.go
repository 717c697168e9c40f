package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firedays/internal/errors"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDiscovery_ResolveSource_ExactName(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "incidents.csv")

	got, err := NewDiscovery(dir).ResolveSource("incidents.csv", "*incident*.csv")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscovery_ResolveSource_GlobFallback(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "CA_Wildfire_Incidents_2013-2020.csv")

	got, err := NewDiscovery(dir).ResolveSource("incidents.csv", "*incident*.csv")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscovery_ResolveSource_Missing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt")

	_, err := NewDiscovery(dir).ResolveSource("enrollment.xlsx", "*.xlsx")
	assert.ErrorIs(t, err, apperrors.ErrSourceMissing)
}

func TestDiscovery_ResolveSource_FirstPatternWins(t *testing.T) {
	dir := t.TempDir()
	counts := writeFile(t, dir, "county_incident_counts.csv")
	writeFile(t, dir, "raw_incidents.csv")

	got, err := NewDiscovery(dir).ResolveSource("incident_counts.csv", "*incident*count*.csv", "*incident*.csv")
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}

func TestDiscovery_ListSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "closure_days.csv")
	writeFile(t, dir, "enrollment.xlsx")
	writeFile(t, dir, "readme.md")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	files, err := NewDiscovery(dir).ListSourceFiles()
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "closure_days.csv", files[0].Name)
	assert.Equal(t, "enrollment.xlsx", files[1].Name)
	assert.NotZero(t, files[0].Size)
}

func TestDiscovery_Accessible(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, NewDiscovery(dir).Accessible())
	assert.False(t, NewDiscovery(filepath.Join(dir, "missing")).Accessible())
}
