package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/pitchside/go/internal/matchmaking"
	"gopkg.in/yaml.v3"
)

// duration wraps time.Duration so YAML values like "24h" parse.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

func (d duration) Std() time.Duration { return time.Duration(d) }

// AppConfig is the top-level service configuration, loaded from an optional
// YAML file and overridable through environment variables.
type AppConfig struct {
	Season      string             `yaml:"season"`
	Matchmaking matchmaking.Config `yaml:"matchmaking"`
	Scheduler   struct {
		GenerateInterval duration `yaml:"generate_interval"`
		WindowAhead      duration `yaml:"window_ahead"`
		SweepFallback    duration `yaml:"sweep_fallback"`
	} `yaml:"scheduler"`
	Proposal struct {
		ExpiryWindow duration `yaml:"expiry_window"`
	} `yaml:"proposal"`
	Standings struct {
		FormLength     int      `yaml:"form_length"`
		PointsCacheTTL duration `yaml:"points_cache_ttl"`
	} `yaml:"standings"`
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Season:      strconv.Itoa(time.Now().Year()),
		Matchmaking: matchmaking.DefaultConfig(),
	}
	cfg.Scheduler.GenerateInterval = duration(24 * time.Hour)
	cfg.Scheduler.WindowAhead = duration(14 * 24 * time.Hour)
	cfg.Scheduler.SweepFallback = duration(time.Hour)
	cfg.Proposal.ExpiryWindow = duration(24 * time.Hour)
	cfg.Standings.FormLength = 5
	cfg.Standings.PointsCacheTTL = duration(5 * time.Minute)
	return cfg
}

// loadAppConfig reads the YAML config at path when it exists and applies
// environment overrides on top.
func loadAppConfig(path string) (AppConfig, error) {
	cfg := defaultAppConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if season := os.Getenv("PITCHSIDE_SEASON"); season != "" {
		cfg.Season = season
	}
	if err := cfg.Matchmaking.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid matchmaking config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
