// Package config loads run settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything a sync run needs besides the lookup tables.
type Config struct {
	SourceBaseURL      string        `yaml:"source_base_url"`
	SourceToken        string        `yaml:"source_token"`
	DestinationBaseURL string        `yaml:"destination_base_url"`
	DestinationToken   string        `yaml:"destination_token"`
	TablesDir          string        `yaml:"tables_dir"`
	DatabasePath       string        `yaml:"database_path"`
	Workers            int           `yaml:"workers"`
	SourceRPS          int           `yaml:"source_rps"`
	DestinationRPS     int           `yaml:"destination_rps"`
	MaxOperations      int           `yaml:"max_operations"`
	Extended           bool          `yaml:"extended"`
	HTTPTimeout        time.Duration `yaml:"http_timeout"`
	RetryAttempts      int           `yaml:"retry_attempts"`
	RetryMaxElapsed    time.Duration `yaml:"retry_max_elapsed"`
	AbsenceLookback    time.Duration `yaml:"absence_lookback"`
}

// Load reads settings from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return fromEnv(), nil
}

// LoadFile reads settings from the environment, then overlays the YAML
// file at path. Keys present in the file replace environment values.
// Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

func fromEnv() Config {
	return Config{
		SourceBaseURL:      getEnv("HRSYNC_SOURCE_URL", ""),
		SourceToken:        getEnv("HRSYNC_SOURCE_TOKEN", ""),
		DestinationBaseURL: getEnv("HRSYNC_DESTINATION_URL", ""),
		DestinationToken:   getEnv("HRSYNC_DESTINATION_TOKEN", ""),
		TablesDir:          getEnv("HRSYNC_TABLES_DIR", "tables"),
		DatabasePath:       getEnv("HRSYNC_DB", "hrsync.db"),
		Workers:            getEnvInt("HRSYNC_WORKERS", 8),
		SourceRPS:          getEnvInt("HRSYNC_SOURCE_RPS", 10),
		DestinationRPS:     getEnvInt("HRSYNC_DESTINATION_RPS", 10),
		MaxOperations:      getEnvInt("HRSYNC_MAX_OPERATIONS", 500),
		Extended:           getEnvBool("HRSYNC_EXTENDED", false),
		HTTPTimeout:        getEnvDuration("HRSYNC_HTTP_TIMEOUT", 60*time.Second),
		RetryAttempts:      getEnvInt("HRSYNC_RETRY_ATTEMPTS", 5),
		RetryMaxElapsed:    getEnvDuration("HRSYNC_RETRY_MAX_ELAPSED", 30*time.Second),
		AbsenceLookback:    getEnvDuration("HRSYNC_ABSENCE_LOOKBACK", 90*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Validate checks the settings a live run needs. Dry runs still read both
// upstreams, so the same checks apply.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceBaseURL) == "" {
		return fmt.Errorf("HRSYNC_SOURCE_URL is required")
	}
	if strings.TrimSpace(c.DestinationBaseURL) == "" {
		return fmt.Errorf("HRSYNC_DESTINATION_URL is required")
	}
	if strings.TrimSpace(c.SourceToken) == "" {
		return fmt.Errorf("HRSYNC_SOURCE_TOKEN is required")
	}
	if strings.TrimSpace(c.DestinationToken) == "" {
		return fmt.Errorf("HRSYNC_DESTINATION_TOKEN is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("HRSYNC_WORKERS must be positive")
	}
	if c.SourceRPS <= 0 || c.DestinationRPS <= 0 {
		return fmt.Errorf("request rates must be positive")
	}
	if c.MaxOperations <= 0 {
		return fmt.Errorf("HRSYNC_MAX_OPERATIONS must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("HRSYNC_RETRY_ATTEMPTS must be at least 1")
	}
	if c.AbsenceLookback <= 0 {
		return fmt.Errorf("HRSYNC_ABSENCE_LOOKBACK must be positive")
	}
	return nil
}
