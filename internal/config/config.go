// Package config loads hcm server configuration from a YAML file with
// HCM_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. HCM_DATABASE_DSN.
const EnvPrefix = "HCM_"

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Identity IdentityConfig `yaml:"identity" envPrefix:"IDENTITY_"`
	Syslog   SyslogConfig   `yaml:"syslog" envPrefix:"SYSLOG_"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	TrustProxy      bool          `yaml:"trust_proxy" env:"TRUST_PROXY"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects the ownership store.
type DatabaseConfig struct {
	Driver  string `yaml:"driver" env:"DRIVER"`
	Path    string `yaml:"path" env:"PATH"`
	DSN     string `yaml:"dsn" env:"DSN"`
	Migrate bool   `yaml:"migrate" env:"MIGRATE"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// IdentityConfig names the header carrying the authenticated user id.
type IdentityConfig struct {
	Header string `yaml:"header" env:"HEADER"`
}

// SyslogConfig enables the RFC 5424 audit sink.
type SyslogConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Socket  string `yaml:"socket" env:"SOCKET"`
	AppName string `yaml:"app_name" env:"APP_NAME"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: DriverSQLite},
		Log:      LogConfig{Level: "info", Format: "text"},
		Identity: IdentityConfig{Header: "X-User-ID"},
		Syslog:   SyslogConfig{Socket: "/dev/log", AppName: "hcm"},
	}
}

// Load reads path over the defaults, applies environment overrides, and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be sqlite or postgres", c.Database.Driver))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if strings.TrimSpace(c.Identity.Header) == "" {
		errs = append(errs, errors.New("identity.header is required"))
	}
	if c.Syslog.Enabled && c.Syslog.Socket == "" {
		errs = append(errs, errors.New("syslog.socket is required when syslog is enabled"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}
