// Package config loads ledger settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/joho/godotenv"
)

// Supported backends
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Config is the complete runtime configuration
type Config struct {
	Backend   string
	Database  DatabaseConfig
	Badger    BadgerConfig
	HTTPAddr  string
	LogLevel  logger.Level
	Trace     bool
	ListLimit int
	Events    EventsConfig
}

// EventsConfig selects where recorded transactions are announced. Publishing is
// off when no brokers are set.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether a broker is configured
func (e EventsConfig) Enabled() bool {
	return len(e.Brokers) > 0
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// BadgerConfig holds the embedded backend settings
type BadgerConfig struct {
	Path string
}

// DSN builds the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	parts := []string{
		"user=" + quote(d.User),
		"dbname=" + quote(d.Name),
		"host=" + quote(d.Host),
		"port=" + quote(d.Port),
		"sslmode=" + quote(d.SSLMode),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quote(d.Password))
	}
	return strings.Join(parts, " ")
}

// quote escapes a keyword/value DSN value when it contains spaces or quotes
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Redacted returns a printable form of the connection target without the password
func (d DatabaseConfig) Redacted() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(d.User),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	return u.String()
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Backend: strings.ToLower(getEnv("LEDGER_BACKEND", BackendPostgres)),
		Database: DatabaseConfig{
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "ledger"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("SSL_MODE", "disable"),
		},
		Badger:   BadgerConfig{Path: getEnv("BADGER_PATH", "./data")},
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Events: EventsConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "ledger.transaction_recorded"),
		},
	}

	level, err := logger.ParseLevel(getEnv("LOG_LEVEL", string(logger.InfoLevel)))
	if err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.Trace, err = strconv.ParseBool(getEnv("LEDGER_TRACE", "false")); err != nil {
		return nil, fmt.Errorf("parsing LEDGER_TRACE: %w", err)
	}

	if cfg.ListLimit, err = strconv.Atoi(getEnv("LEDGER_LIST_LIMIT", "1000")); err != nil {
		return nil, fmt.Errorf("parsing LEDGER_LIST_LIMIT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the ledger cannot run with
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if _, err := strconv.Atoi(c.Database.Port); err != nil {
			return fmt.Errorf("DB_PORT must be numeric, got %q", c.Database.Port)
		}
	case BackendBadger:
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", BackendPostgres, BackendBadger, c.Backend)
	}

	if c.ListLimit <= 0 {
		return fmt.Errorf("LEDGER_LIST_LIMIT must be positive, got %d", c.ListLimit)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
