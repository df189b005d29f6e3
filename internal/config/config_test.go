package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hperssn/repclock/internal/storage"
)

var envKeys = []string{
	"PORT", "DB_DRIVER", "DATABASE_URL", "PLANS_PATH", "TICK_INTERVAL",
	"SESSION_RETENTION", "REST_BETWEEN_SETS", "ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(config, Default()) {
		t.Fatalf("config = %+v want %+v", config, Default())
	}
}

func TestLoadYaml(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: "9090"
db_driver: postgres
database_url: postgres://coach@localhost/repclock
plans_path: /etc/repclock/plans.yaml
tick_interval_ms: 500
session_retention_minutes: 30
rest_between_sets: true
allowed_origins: ["https://app.example.com"]
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Config{
		Port:             "9090",
		DBDriver:         "postgres",
		DatabaseURL:      "postgres://coach@localhost/repclock",
		PlansPath:        "/etc/repclock/plans.yaml",
		TickInterval:     500 * time.Millisecond,
		SessionRetention: 30 * time.Minute,
		RestBetweenSets:  true,
		AllowedOrigins:   []string{"https://app.example.com"},
	}
	if !reflect.DeepEqual(config, want) {
		t.Fatalf("config = %+v want %+v", config, want)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: \"9090\"\ndb_driver: sqlite3\n")

	t.Setenv("PORT", "7000")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("SESSION_RETENTION", "2h")
	t.Setenv("REST_BETWEEN_SETS", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Port != "7000" || config.DBDriver != "memory" {
		t.Fatalf("env did not override file: %+v", config)
	}
	if config.TickInterval != 250*time.Millisecond || config.SessionRetention != 2*time.Hour {
		t.Fatalf("durations not parsed: %+v", config)
	}
	if !config.RestBetweenSets {
		t.Fatalf("expected rest between sets")
	}
	if !reflect.DeepEqual(config.AllowedOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Fatalf("origins = %v", config.AllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "broken yaml", file: "port: [\n"},
		{name: "bad tick interval", env: map[string]string{"TICK_INTERVAL": "soon"}},
		{name: "zero tick interval", env: map[string]string{"TICK_INTERVAL": "0s"}},
		{name: "bad port", env: map[string]string{"PORT": "http"}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "mongo"}},
		{name: "bad bool", env: map[string]string{"REST_BETWEEN_SETS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			if _, err := Load(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	config := Default()
	config.DBDriver = "postgres"
	config.DatabaseURL = ""

	if err := config.Validate(); err == nil {
		t.Fatalf("expected error for postgres without url")
	}
}

func TestValidateAcceptsStorageDriverNames(t *testing.T) {
	tests := []struct {
		driver string
		url    string
	}{
		{"", ""},
		{"memory", ""},
		{"sqlite", "repclock.db"},
		{"sqlite3", "repclock.db"},
		{"postgres", "postgres://localhost/repclock"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			config := Default()
			config.DBDriver = tt.driver
			config.DatabaseURL = tt.url

			if err := config.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if tt.driver == "postgres" {
				return
			}
			repo, err := storage.Open(tt.driver, ":memory:")
			if err != nil {
				t.Fatalf("storage.Open(%q) = %v", tt.driver, err)
			}
			repo.Close()
		})
	}
}
