package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hcm.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Identity.Header != "X-User-ID" {
		t.Errorf("identity header = %q", cfg.Identity.Header)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Log("Testing that environment variables override the YAML file")

	path := writeConfig(t, `
server:
  listen_addr: ":9000"
  shutdown_timeout: 3s
database:
  driver: postgres
  dsn: postgres://file/hcm
log:
  level: debug
  format: json
syslog:
  enabled: true
`)
	t.Setenv("HCM_DATABASE_DSN", "postgres://env/hcm")
	t.Setenv("HCM_IDENTITY_HEADER", "X-Resident-ID")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000 from file", cfg.Server.ListenAddr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.DSN != "postgres://env/hcm" {
		t.Errorf("dsn = %q, want env override", cfg.Database.DSN)
	}
	if cfg.Identity.Header != "X-Resident-ID" {
		t.Errorf("identity header = %q", cfg.Identity.Header)
	}
	if !cfg.Syslog.Enabled || cfg.Syslog.Socket != "/dev/log" {
		t.Errorf("syslog = %+v, want enabled with default socket", cfg.Syslog)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default ok", func(*Config) {}, ""},
		{"empty listen", func(c *Config) { c.Server.ListenAddr = " " }, "listen_addr"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "sqlite or postgres"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "dsn"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty header", func(c *Config) { c.Identity.Header = "" }, "identity.header"},
		{"syslog without socket", func(c *Config) { c.Syslog.Enabled = true; c.Syslog.Socket = "" }, "syslog.socket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "xml"
	cfg.Identity.Header = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "log.format") || !strings.Contains(err.Error(), "identity.header") {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("unexpected output %q", out)
	}
}
