// Package config reads and writes cnab.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in a workspace.
const FileName = "cnab.yaml"

// Environment overrides.
const (
	EnvLogLevel  = "CNAB_LOG_LEVEL"
	EnvSchemaDir = "CNAB_SCHEMA_DIR"
	EnvStrict    = "CNAB_STRICT"
	EnvWorkers   = "CNAB_WORKERS"
)

// Config represents the top-level cnab.yaml configuration.
type Config struct {
	Parser     ParserConfig     `yaml:"parser"`
	Validation ValidationConfig `yaml:"validation"`
	Schemas    SchemasConfig    `yaml:"schemas"`
	Banks      BanksConfig      `yaml:"banks"`
	Logging    LoggingConfig    `yaml:"logging"`
	Workers    int              `yaml:"workers"`
}

// ParserConfig controls field extraction.
type ParserConfig struct {
	Strict         bool `yaml:"strict"`
	Trim           bool `yaml:"trim"`
	ValidateRanges bool `yaml:"validate_ranges"`
}

// ValidationConfig selects validation layers.
type ValidationConfig struct {
	Structural       bool   `yaml:"structural"`
	Field            bool   `yaml:"field"`
	Integrity        bool   `yaml:"integrity"`
	Business         bool   `yaml:"business"`
	MaxErrorsPerLine int    `yaml:"max_errors_per_line"`
	SubType          string `yaml:"sub_type"`
}

// SchemasConfig points at per-bank schema overrides. Relative paths are
// resolved against the workspace.
type SchemasConfig struct {
	Dir string `yaml:"dir"`
}

// BanksConfig points at the bank directory CSV.
type BanksConfig struct {
	File string `yaml:"file"`
}

// LoggingConfig sets the logrus level and formatter.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Load reads a cnab.yaml file from disk. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("parsing config: workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

// LoadOrDefault reads path when it exists and returns Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			Trim:           true,
			ValidateRanges: true,
		},
		Validation: ValidationConfig{
			Structural:       true,
			Field:            true,
			Integrity:        true,
			Business:         true,
			MaxErrorsPerLine: 10,
		},
		Schemas: SchemasConfig{Dir: "schemas"},
		Banks:   BanksConfig{File: filepath.Join("banks", "banks.csv")},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Workers: 4,
	}
}

// ApplyEnv overrides cfg from the environment. A .env file in dir is loaded
// first when present; variables already set in the process win over it.
func ApplyEnv(cfg *Config, dir string) error {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSchemaDir); v != "" {
		cfg.Schemas.Dir = v
	}

	strict, err := getEnvAsBool(EnvStrict, cfg.Parser.Strict)
	if err != nil {
		return err
	}
	cfg.Parser.Strict = strict

	workers, err := getEnvAsInt(EnvWorkers, cfg.Workers)
	if err != nil {
		return err
	}
	if workers < 1 {
		return fmt.Errorf("invalid value for %s: must be at least 1, got %d", EnvWorkers, workers)
	}
	cfg.Workers = workers
	return nil
}

// Resolve returns path joined to dir unless it is absolute or empty.
func Resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}
	return value, nil
}
