package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
  kaiser_override: "kaiser-hq"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Site.KaiserOverride != "kaiser-hq" {
		t.Errorf("Site.KaiserOverride = %q, want %q", cfg.Site.KaiserOverride, "kaiser-hq")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.CacheTTL != 300 {
		t.Errorf("Hub.CacheTTL = %d, want 300", cfg.Hub.CacheTTL)
	}
	if cfg.Hub.SensorHistory != 288 {
		t.Errorf("Hub.SensorHistory = %d, want 288", cfg.Hub.SensorHistory)
	}
	if cfg.Session.UnreachableAfter != 120 {
		t.Errorf("Session.UnreachableAfter = %d, want 120", cfg.Session.UnreachableAfter)
	}
	if cfg.MQTT.Broker.ClientID != "fleethub-core" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "fleethub-core")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	content := `
security:
  jwt:
    secret: "short"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for short JWT secret, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	t.Setenv("FLEETHUB_DATABASE_PATH", "/env/override.db")
	t.Setenv("FLEETHUB_KAISER_OVERRIDE", "kaiser-env")
	t.Setenv("FLEETHUB_MQTT_PORT", "8883")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/env/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Site.KaiserOverride != "kaiser-env" {
		t.Errorf("Site.KaiserOverride = %q, want env override", cfg.Site.KaiserOverride)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
}

func TestValidate_QoSRange(t *testing.T) {
	cfg := Default()
	cfg.Security.JWT.Secret = "test-secret-key-at-least-32-chars!"
	cfg.MQTT.QoS = 3

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for qos=3, got nil")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()

	if got := cfg.GetCacheTTL().Minutes(); got != 5 {
		t.Errorf("GetCacheTTL() = %v minutes, want 5", got)
	}
	if got := cfg.GetUnreachableAfter().Seconds(); got != 120 {
		t.Errorf("GetUnreachableAfter() = %v seconds, want 120", got)
	}
}
