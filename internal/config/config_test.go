package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
redis:
  address: "redis:6379"
  db: 2
admin:
  passcode: "4321"
audit:
  path: "`+filepath.Join(t.TempDir(), "audit.db")+`"
booking:
  window_days: 21
monitoring:
  prometheus_enabled: true
  prometheus_port: 9100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Redis.Address != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Booking.WindowDays != 21 {
		t.Errorf("window days = %d", cfg.Booking.WindowDays)
	}
	if !cfg.Monitoring.PrometheusEnabled || cfg.Monitoring.PrometheusPort != 9100 {
		t.Errorf("monitoring = %+v", cfg.Monitoring)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
admin:
  passcode: "4321"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("default port = %d", cfg.HTTP.Port)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("default redis address = %s", cfg.Redis.Address)
	}
	if cfg.Booking.WindowDays != 14 {
		t.Errorf("default window days = %d", cfg.Booking.WindowDays)
	}
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("WAYLINS_TEST_PASSCODE", "9999")
	path := writeConfig(t, `
admin:
  passcode: "${WAYLINS_TEST_PASSCODE}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Admin.Passcode != "9999" {
		t.Errorf("passcode = %s", cfg.Admin.Passcode)
	}
}

func TestLoadRequiresPasscode(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for missing admin passcode")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
