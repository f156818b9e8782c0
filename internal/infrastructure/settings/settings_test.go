package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	want := Default()
	require.NoError(t, want.Set("critical_hour", "12"))
	require.NoError(t, want.Set("morning_goes_outbound", "false"))
	require.NoError(t, want.Set("outbound_routes", "2, 4, 8"))
	require.NoError(t, want.Set("return_destination", "39.99,116.30"))
	require.NoError(t, want.Set("lookup_delay_ms", "250"))

	require.NoError(t, Save(path, want))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 250*time.Millisecond, got.LookupDelay())
	assert.Equal(t, []int{2, 4, 8}, got.Selector().Routes[reservation.Outbound])
	assert.Equal(t, reservation.DirectionConfig{CriticalHour: 12}, got.Direction())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("past_tolerance = 3\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.PastTolerance)
	assert.Equal(t, 30, s.FutureTolerance)
	assert.Equal(t, []int{5, 6, 7}, s.ReturnRoutes)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHUTTLE_CRITICAL_HOUR", "9")
	s, err := Load(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	assert.Equal(t, 9, s.CriticalHour)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("lookup_attempts = 0\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version = 9\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not toml ["), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSetErrors(t *testing.T) {
	s := Default()
	assert.Error(t, s.Set("nope", "1"))
	assert.Error(t, s.Set("critical_hour", "noon"))
	assert.Error(t, s.Set("critical_hour", "25"))
	assert.Error(t, s.Set("outbound_destination", "40.1"))
	assert.Error(t, s.Set("past_tolerance", "-1"))
}

func TestResolverFallsBackWithoutLocator(t *testing.T) {
	s := Default()
	morning := time.Date(2024, 5, 6, 8, 0, 0, 0, time.Local)
	assert.Equal(t, reservation.Outbound, s.Resolver(nil).Resolve(t.Context(), morning))

	nearNewCampus := reservation.StaticLocator(s.OutboundDestination)
	assert.Equal(t, reservation.Return, s.Resolver(nearNewCampus).Resolve(t.Context(), morning))
}
