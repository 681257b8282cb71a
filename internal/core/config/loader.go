package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.bls.gov"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.RateCalls == 0 {
		cfg.API.RateCalls = 10
	}
	if cfg.API.RatePeriod == 0 {
		cfg.API.RatePeriod = 10 * time.Second
	}
	if cfg.Selection.PerSurveyQuota == 0 {
		cfg.Selection.PerSurveyQuota = 500
	}
	if cfg.Selection.HighVolumeQuota == 0 {
		cfg.Selection.HighVolumeQuota = 2000
	}
	if cfg.Selection.HighVolumeSurveys == nil {
		cfg.Selection.HighVolumeSurveys = []string{"OE", "WM", "EN"}
	}
	if cfg.Fetch.BatchSize == 0 {
		cfg.Fetch.BatchSize = 50
	}
	if cfg.Fetch.YearSpan == 0 {
		cfg.Fetch.YearSpan = 20
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Cache.Redis.TTL == 0 {
		cfg.Cache.Redis.TTL = 24 * time.Hour
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
}
