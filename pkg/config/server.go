package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the settings that are more comfortably expressed as a
// deployed YAML file than a wall of environment variables: the listen
// address, the default WebSub lease duration, and the global outbound
// fetch rate limit shared by every Retrieve node.
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	Version            string        `yaml:"version"`
	WebSubCallbackBase string        `yaml:"websub_callback_base"`
	DefaultLeaseTime   time.Duration `yaml:"default_lease_time"`
	FetchRatePerSecond float64       `yaml:"fetch_rate_per_second"`
	FetchBurst         int           `yaml:"fetch_burst"`
}

// DefaultServerConfig returns production defaults, used whenever no config
// file is present or a field is left zero in one that is.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:               ":8080",
		Version:            "dev",
		WebSubCallbackBase: "http://localhost:8080/websub",
		DefaultLeaseTime:   24 * time.Hour,
		FetchRatePerSecond: 10,
		FetchBurst:         20,
	}
}

// LoadServerConfig reads path as YAML and overlays it on DefaultServerConfig.
// A missing file is not an error: the caller gets pure defaults, following
// the teacher's env-fallback style but for file-based config.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("LoadServerConfig: %w", err)
	}

	var override ServerConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, fmt.Errorf("LoadServerConfig: %w", err)
	}

	if override.Addr != "" {
		cfg.Addr = override.Addr
	}
	if override.Version != "" {
		cfg.Version = override.Version
	}
	if override.WebSubCallbackBase != "" {
		cfg.WebSubCallbackBase = override.WebSubCallbackBase
	}
	if override.DefaultLeaseTime != 0 {
		cfg.DefaultLeaseTime = override.DefaultLeaseTime
	}
	if override.FetchRatePerSecond != 0 {
		cfg.FetchRatePerSecond = override.FetchRatePerSecond
	}
	if override.FetchBurst != 0 {
		cfg.FetchBurst = override.FetchBurst
	}
	return cfg, nil
}
