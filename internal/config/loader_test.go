package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if diff := cmp.Diff([]string{".localhost"}, cfg.Server.LocalSuffixes); diff != "" {
		t.Errorf("local suffixes mismatch (-want +got):\n%s", diff)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("NATS should be disabled by default, got %q", cfg.NATS.URL)
	}
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  root_domain: "example.com"
  protocol: "https"
  local_suffixes: [".localhost", ".test"]
postgres:
  max_conns: 30
logging:
  level: "debug"
cache:
  tenant_ttl: 5m
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.RootDomain != "example.com" {
		t.Errorf("expected root domain example.com, got %s", cfg.Server.RootDomain)
	}
	if cfg.Server.Protocol != "https" {
		t.Errorf("expected protocol https, got %s", cfg.Server.Protocol)
	}
	if diff := cmp.Diff([]string{".localhost", ".test"}, cfg.Server.LocalSuffixes); diff != "" {
		t.Errorf("local suffixes mismatch (-want +got):\n%s", diff)
	}
	if cfg.Postgres.MaxConns != 30 {
		t.Errorf("expected max_conns 30, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Cache.TenantTTL != 5*time.Minute {
		t.Errorf("expected tenant ttl 5m, got %v", cfg.Cache.TenantTTL)
	}
	// Unchanged fields keep defaults
	if cfg.Server.CORSOrigin != "http://localhost:3000" {
		t.Errorf("expected default CORS origin, got %s", cfg.Server.CORSOrigin)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("TENANTFORGE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("TENANTFORGE_PG_MAX_CONNS", "25")
	t.Setenv("TENANTFORGE_LOG_LEVEL", "warn")
	t.Setenv("TENANTFORGE_BREAKER_TIMEOUT", "1m")
	t.Setenv("TENANTFORGE_LOCAL_SUFFIXES", " .localhost , ,.lvh.me")
	t.Setenv("NATS_URL", "nats://nats:4222")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("unexpected DSN: %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if diff := cmp.Diff([]string{".localhost", ".lvh.me"}, cfg.Server.LocalSuffixes); diff != "" {
		t.Errorf("local suffixes mismatch (-want +got):\n%s", diff)
	}
	if cfg.NATS.URL != "nats://nats:4222" {
		t.Errorf("expected NATS URL from env, got %s", cfg.NATS.URL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"empty root domain", func(c *Config) { c.Server.RootDomain = "" }, true},
		{"bad protocol", func(c *Config) { c.Server.Protocol = "ftp" }, true},
		{"zero body limit", func(c *Config) { c.Server.BodyLimit = 0 }, true},
		{"empty dsn", func(c *Config) { c.Postgres.DSN = "" }, true},
		{"zero max conns", func(c *Config) { c.Postgres.MaxConns = 0 }, true},
		{"min above max", func(c *Config) { c.Postgres.MinConns = 50 }, true},
		{"nats without stream", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.Stream = "" }, true},
		{"zero breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }, true},
		{"zero rps", func(c *Config) { c.Rate.RequestsPerSecond = 0 }, true},
		{"zero burst", func(c *Config) { c.Rate.Burst = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
