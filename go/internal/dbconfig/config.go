// Package dbconfig resolves the Postgres connection for the pitchside
// services. A full PITCHSIDE_DB_URL wins; otherwise the DSN is assembled
// from the individual DB_* variables, defaulting to a local dev database.
package dbconfig

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	URL      string // overrides everything else when set
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewConfigFromEnv resolves connection settings from the environment.
// Unset variables fall back to local development defaults.
func NewConfigFromEnv() Config {
	cfg := Config{
		URL:      os.Getenv("PITCHSIDE_DB_URL"),
		Host:     envOr("DB_HOST", "localhost"),
		Port:     5432,
		User:     envOr("DB_USER", "pitchside"),
		Password: envOr("DB_PASSWORD", "pitchside"),
		Database: envOr("DB_NAME", "pitchside"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	if p, err := strconv.Atoi(envOr("DB_PORT", "5432")); err == nil {
		cfg.Port = p
	}
	return cfg
}

// DSN returns the connection string lib/pq expects.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User, c.Password, addr, c.Database, c.SSLMode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
