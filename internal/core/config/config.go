package config

import (
	"errors"
	"time"

	"github.com/subsetdata/bls-connector/internal/infra/rediscache"
	"github.com/subsetdata/bls-connector/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Selection SelectionConfig `yaml:"selection"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the metrics listener settings. Port 0 disables it.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// APIConfig holds upstream BLS API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Key        string        `yaml:"key"` // usually ${BLS_API_KEY}
	Timeout    time.Duration `yaml:"timeout"`
	RateCalls  int           `yaml:"rate_calls"`  // calls per window
	RatePeriod time.Duration `yaml:"rate_period"` // window length
	DailyQuota int           `yaml:"daily_quota"` // 0 = rely on server-side detection only
}

// SelectionConfig holds the catalog selection policy. High-volume surveys
// yield one data point per period per series, so they get a larger quota.
type SelectionConfig struct {
	CatalogPath       string              `yaml:"catalog_path"`
	PerSurveyQuota    int                 `yaml:"per_survey_quota"`
	HighVolumeQuota   int                 `yaml:"high_volume_quota"`
	HighVolumeSurveys []string            `yaml:"high_volume_surveys"`
	FallbackSeries    map[string][]string `yaml:"fallback_series"`
}

// FetchConfig holds fetch driver settings.
type FetchConfig struct {
	BatchSize int `yaml:"batch_size"`
	YearSpan  int `yaml:"year_span"`
}

// StorageConfig selects the raw/state storage backend.
type StorageConfig struct {
	Backend  string          `yaml:"backend"` // "file" or "postgres"
	DataDir  string          `yaml:"data_dir"`
	Postgres postgres.Config `yaml:"postgres"`
}

// CacheConfig holds the optional upstream GET response cache.
type CacheConfig struct {
	Enabled bool              `yaml:"enabled"`
	Redis   rediscache.Config `yaml:"redis"`
}

// OutputConfig holds the local publisher settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ErrMissingAPIKey is returned when no registration key is configured.
var ErrMissingAPIKey = errors.New("config: BLS API key is not set (set BLS_API_KEY)")

// Validate checks required inputs before any network call is made.
func (c *AppConfig) Validate() error {
	if c.API.Key == "" {
		return ErrMissingAPIKey
	}
	return nil
}
