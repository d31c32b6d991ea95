package monitor

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configVersionV1 = "1"
	// ConfigVersion exposes the current config format version for tooling.
	ConfigVersion = configVersionV1

	DefaultListen       = ":8080"
	DefaultBasePath     = "/monitor"
	DefaultAPIBaseURL   = "http://localhost:8000"
	DefaultGeocodeURL   = "https://dapi.kakao.com"
	DefaultMapAppKey    = "556feed4e7ed48f090f6765df97c4107"
	DefaultLocale       = "ko"
	DefaultChartTTL     = 5 * time.Minute
	defaultGeocodeRPS   = 5
	defaultGeocodeBurst = 1
)

// Config is the YAML document that drives `plantwatch serve` and the CLI.
type Config struct {
	Version  string       `json:"version" yaml:"version"`
	Listen   string       `json:"listen,omitempty" yaml:"listen,omitempty"`
	BasePath string       `json:"base_path,omitempty" yaml:"base_path,omitempty"`
	API      APIConfig    `json:"api" yaml:"api"`
	Map      MapConfig    `json:"map" yaml:"map"`
	View     ViewConfig   `json:"view" yaml:"view"`
	Charts   ChartsConfig `json:"charts" yaml:"charts"`
	Log      LogConfig    `json:"log" yaml:"log"`
	Source   string       `json:"-" yaml:"-"`
}

// APIConfig points at the plant backend.
type APIConfig struct {
	BaseURL   string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UserAgent string        `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// MapConfig holds the map JS key and the geocoder settings.
type MapConfig struct {
	AppKey       string  `json:"app_key,omitempty" yaml:"app_key,omitempty"`
	RESTKey      string  `json:"rest_key,omitempty" yaml:"rest_key,omitempty"`
	GeocodeURL   string  `json:"geocode_url,omitempty" yaml:"geocode_url,omitempty"`
	Level        int     `json:"level,omitempty" yaml:"level,omitempty"`
	GeocodeRPS   float64 `json:"geocode_rps,omitempty" yaml:"geocode_rps,omitempty"`
	GeocodeBurst int     `json:"geocode_burst,omitempty" yaml:"geocode_burst,omitempty"`
}

// ViewConfig seeds new sessions.
type ViewConfig struct {
	PageSize       int    `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	DefaultPlantID int    `json:"default_plant_id,omitempty" yaml:"default_plant_id,omitempty"`
	DefaultView    string `json:"default_view,omitempty" yaml:"default_view,omitempty"`
	Theme          string `json:"theme,omitempty" yaml:"theme,omitempty"`
	Locale         string `json:"locale,omitempty" yaml:"locale,omitempty"`
	Timezone       string `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	SessionTTL  time.Duration `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty"`
	MaxSessions int           `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
}

type ChartsConfig struct {
	AssetsHost string        `json:"assets_host,omitempty" yaml:"assets_host,omitempty"`
	CacheTTL   time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads and validates a config file. An empty path yields DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("monitor: open config %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("monitor: decode config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// DecodeConfig reads a config document from any reader.
func DecodeConfig(r io.Reader) (Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("monitor: parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func (cfg Config) Validate() error {
	if cfg.Version != configVersionV1 {
		return fmt.Errorf("monitor: unsupported config version %q", cfg.Version)
	}
	if !strings.HasPrefix(cfg.BasePath, "/") {
		return fmt.Errorf("monitor: base_path must start with /, got %q", cfg.BasePath)
	}
	if _, err := url.ParseRequestURI(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("monitor: invalid api.base_url %q: %w", cfg.API.BaseURL, err)
	}
	if _, err := url.ParseRequestURI(cfg.Map.GeocodeURL); err != nil {
		return fmt.Errorf("monitor: invalid map.geocode_url %q: %w", cfg.Map.GeocodeURL, err)
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("monitor: api.timeout must not be negative")
	}
	if _, err := ParseView(cfg.View.DefaultView); err != nil {
		return fmt.Errorf("monitor: view.default_view: %w", err)
	}
	switch Theme(cfg.View.Theme) {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("monitor: unsupported view.theme %q", cfg.View.Theme)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves view.timezone. An empty timezone returns nil, which keeps
// each timestamp's own offset.
func (cfg Config) Location() (*time.Location, error) {
	if cfg.View.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(cfg.View.Timezone)
	if err != nil {
		return nil, fmt.Errorf("monitor: view.timezone %q: %w", cfg.View.Timezone, err)
	}
	return loc, nil
}

// DefaultViewState builds the state new sessions start from.
func (cfg Config) DefaultViewState() ViewState {
	state := DefaultViewState()
	if view, err := ParseView(cfg.View.DefaultView); err == nil {
		state.View = view
	}
	if cfg.View.DefaultPlantID > 0 {
		state.PlantID = cfg.View.DefaultPlantID
	}
	state.Theme = ParseTheme(cfg.View.Theme)
	return state
}

func (cfg *Config) applyDefaults() {
	if cfg.Version == "" {
		cfg.Version = configVersionV1
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}
	cfg.BasePath = strings.TrimRight(cfg.BasePath, "/")
	if cfg.BasePath == "" {
		cfg.BasePath = "/"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Map.AppKey == "" {
		cfg.Map.AppKey = DefaultMapAppKey
	}
	if cfg.Map.GeocodeURL == "" {
		cfg.Map.GeocodeURL = DefaultGeocodeURL
	}
	if cfg.Map.Level <= 0 {
		cfg.Map.Level = DefaultMapLevel
	}
	if cfg.Map.GeocodeRPS <= 0 {
		cfg.Map.GeocodeRPS = defaultGeocodeRPS
	}
	if cfg.Map.GeocodeBurst <= 0 {
		cfg.Map.GeocodeBurst = defaultGeocodeBurst
	}
	if cfg.View.PageSize <= 0 {
		cfg.View.PageSize = DefaultPageSize
	}
	if cfg.View.SessionTTL <= 0 {
		cfg.View.SessionTTL = DefaultSessionTTL
	}
	if cfg.View.MaxSessions <= 0 {
		cfg.View.MaxSessions = DefaultMaxSessions
	}
	if cfg.View.DefaultPlantID <= 0 {
		cfg.View.DefaultPlantID = 1
	}
	if cfg.View.DefaultView == "" {
		cfg.View.DefaultView = string(ViewAnalysis)
	}
	if cfg.View.Theme == "" {
		cfg.View.Theme = string(ThemeLight)
	}
	if cfg.View.Locale == "" {
		cfg.View.Locale = DefaultLocale
	}
	if cfg.Charts.CacheTTL == 0 {
		cfg.Charts.CacheTTL = DefaultChartTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
