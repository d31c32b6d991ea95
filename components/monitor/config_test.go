package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfig(t *testing.T) {
	const payload = `
version: 1
listen: ":9090"
base_path: /plants/
api:
  base_url: http://backend:8000/
  timeout: 3s
map:
  rest_key: secret
  geocode_rps: 2
view:
  page_size: 10
  default_view: power-plant
  theme: dark
  timezone: UTC
  session_ttl: 10m
  max_sessions: 50
charts:
  cache_ttl: 1m
`
	cfg, err := DecodeConfig(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/plants", cfg.BasePath)
	assert.Equal(t, "http://backend:8000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "secret", cfg.Map.RESTKey)
	assert.Equal(t, DefaultMapAppKey, cfg.Map.AppKey)
	assert.Equal(t, DefaultGeocodeURL, cfg.Map.GeocodeURL)
	assert.Equal(t, 2.0, cfg.Map.GeocodeRPS)
	assert.Equal(t, 10, cfg.View.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.View.SessionTTL)
	assert.Equal(t, 50, cfg.View.MaxSessions)
	assert.Equal(t, time.Minute, cfg.Charts.CacheTTL)

	state := cfg.DefaultViewState()
	assert.Equal(t, ViewPowerPlant, state.View)
	assert.Equal(t, ThemeDark, state.Theme)
	assert.Equal(t, 1, state.PlantID)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestDecodeConfigEmptyUsesDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultBasePath, cfg.BasePath)
	assert.Equal(t, DefaultPageSize, cfg.View.PageSize)
	assert.Equal(t, DefaultMapLevel, cfg.Map.Level)
	assert.Zero(t, cfg.API.Timeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestDecodeConfigRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "version: 1\nlisten_addr: :80\n",
		"version":        "version: 2\n",
		"view":           "view:\n  default_view: dashboard\n",
		"theme":          "view:\n  theme: sepia\n",
		"timezone":       "view:\n  timezone: Mars/Olympus\n",
		"base url":       "api:\n  base_url: not a url\n",
		"base path":      "base_path: monitor\n",
		"negative delay": "api:\n  timeout: -1s\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeConfig(strings.NewReader(payload))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plantwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nlog:\n  level: debug\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	cfg, err = LoadConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, cfg.Listen)
}
