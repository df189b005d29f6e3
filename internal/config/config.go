package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains the server settings.
type Config struct {
	Port             string
	DBDriver         string
	DatabaseURL      string
	PlansPath        string
	TickInterval     time.Duration
	SessionRetention time.Duration
	RestBetweenSets  bool
	AllowedOrigins   []string
}

type yamlConfig struct {
	Port                    string   `yaml:"port"`
	DBDriver                string   `yaml:"db_driver"`
	DatabaseURL             string   `yaml:"database_url"`
	PlansPath               string   `yaml:"plans_path"`
	TickIntervalMillis      int      `yaml:"tick_interval_ms"`
	SessionRetentionMinutes int      `yaml:"session_retention_minutes"`
	RestBetweenSets         *bool    `yaml:"rest_between_sets"`
	AllowedOrigins          []string `yaml:"allowed_origins"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:             "8080",
		DBDriver:         "sqlite3",
		DatabaseURL:      "repclock.db",
		PlansPath:        "plans.yaml",
		TickInterval:     time.Second,
		SessionRetention: time.Hour,
		AllowedOrigins:   []string{"*"},
	}
}

// Load reads the YAML config at path, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		rawData, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fileData yamlConfig
			if err := yaml.Unmarshal(rawData, &fileData); err != nil {
				return config, fmt.Errorf("parse config yaml: %w", err)
			}
			applyYamlConfig(&config, fileData)
		case !errors.Is(err, os.ErrNotExist):
			return config, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must be set")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.SessionRetention <= 0 {
		return fmt.Errorf("session retention must be positive, got %s", c.SessionRetention)
	}
	// Same driver names as storage.Open.
	switch c.DBDriver {
	case "", "memory":
	case "sqlite", "sqlite3", "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url required for driver %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	return nil
}

func applyYamlConfig(config *Config, fileData yamlConfig) {
	if fileData.Port != "" {
		config.Port = fileData.Port
	}
	if fileData.DBDriver != "" {
		config.DBDriver = fileData.DBDriver
	}
	if fileData.DatabaseURL != "" {
		config.DatabaseURL = fileData.DatabaseURL
	}
	if fileData.PlansPath != "" {
		config.PlansPath = fileData.PlansPath
	}
	if fileData.TickIntervalMillis > 0 {
		config.TickInterval = time.Duration(fileData.TickIntervalMillis) * time.Millisecond
	}
	if fileData.SessionRetentionMinutes > 0 {
		config.SessionRetention = time.Duration(fileData.SessionRetentionMinutes) * time.Minute
	}
	if fileData.RestBetweenSets != nil {
		config.RestBetweenSets = *fileData.RestBetweenSets
	}
	if len(fileData.AllowedOrigins) > 0 {
		config.AllowedOrigins = fileData.AllowedOrigins
	}
}

func applyEnv(config *Config) error {
	config.Port = envOr("PORT", config.Port)
	config.DBDriver = envOr("DB_DRIVER", config.DBDriver)
	config.DatabaseURL = envOr("DATABASE_URL", config.DatabaseURL)
	config.PlansPath = envOr("PLANS_PATH", config.PlansPath)

	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TICK_INTERVAL: %w", err)
		}
		config.TickInterval = d
	}
	if v := os.Getenv("SESSION_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SESSION_RETENTION: %w", err)
		}
		config.SessionRetention = d
	}
	if v := os.Getenv("REST_BETWEEN_SETS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse REST_BETWEEN_SETS: %w", err)
		}
		config.RestBetweenSets = b
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		config.AllowedOrigins = origins
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
