package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://rrf.rsm.govt.nz/api/public_search/licence", cfg.Registry.APIURL)
	assert.Equal(t, 5000, cfg.Registry.PageSize)
	assert.Equal(t, 0, cfg.Registry.MaxPages)
	assert.Equal(t, 178, cfg.Registry.LicenceType)
	assert.Equal(t, "id desc", cfg.Registry.OrderBy)
	assert.Equal(t, 5, cfg.Registry.MaxRetries)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "rrf_licences.json", cfg.Store.JSONPath)
	assert.True(t, cfg.Geo.EnableTM2000)
	assert.Equal(t, []string{"D", "D2000"}, cfg.Geo.DirectTags)
	assert.Equal(t, "TM2000", cfg.Geo.ProjectedTag)
	assert.InDelta(t, -60.0, cfg.Geo.MinLat, 0.001)
	assert.InDelta(t, 190.0, cfg.Geo.MaxLon, 0.001)
	assert.Equal(t, []string{"uber"}, cfg.Facets.ExcludedCarriers)
	assert.InDelta(t, 50.0, cfg.Cluster.RadiusM, 0.001)
	assert.Equal(t, []string{"2degrees", "one", "spark"}, cfg.Cluster.PrimaryCarriers)
	assert.Equal(t, "rcg", cfg.Cluster.SecondaryCarrier)
	assert.Equal(t, 10, cfg.Cluster.RecentLimit)
	assert.Equal(t, 6, cfg.Geocode.SuggestLimit)
	assert.Equal(t, 120, cfg.Geocode.DebounceMs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 168, cfg.Monitor.StaleHours)
	assert.Equal(t, 60, cfg.Monitor.CheckIntervalMins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: json
log:
  level: debug
  format: console
server:
  port: 9090
facets:
  excluded_carriers: []
cluster:
  radius_m: 75
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Empty(t, cfg.Facets.ExcludedCarriers)
	assert.InDelta(t, 75.0, cfg.Cluster.RadiusM, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 5000, cfg.Registry.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: json
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RRF_STORE_DRIVER", "postgres")
	t.Setenv("RRF_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RRF_SERVER_PORT", "3000")
	t.Setenv("RRF_GEO_ENABLE_TM2000", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Geo.EnableTM2000)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RRF_REGISTRY_PAGE_SIZE=250\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RRF_REGISTRY_PAGE_SIZE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Registry.PageSize)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [\n"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Registry.APIURL = "https://example.test/licence"
	cfg.Registry.PageSize = 5000
	cfg.Store.Driver = "sqlite"
	cfg.Cluster.RadiusM = 50
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateIngest(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("ingest"))

	cfg.Registry.APIURL = ""
	cfg.Registry.PageSize = 0
	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.api_url is required")
	assert.Contains(t, err.Error(), "registry.page_size must be > 0")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/rrf"
	assert.NoError(t, cfg.Validate("status"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
