// Package config loads QuickBill runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// QUICKBILL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/roach88/quickbill/internal/logger"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "QUICKBILL"

// DefaultFile is read when no config path is given. Its absence is not an error.
const DefaultFile = "quickbill.yaml"

// Config holds runtime configuration.
type Config struct {
	Database string `yaml:"database" envconfig:"DB" validate:"required"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=console json"`
	LogOutput string `yaml:"log_output" envconfig:"LOG_OUTPUT"`

	// SettingsDebounce is the quiet period before preference edits are written.
	SettingsDebounce time.Duration `yaml:"settings_debounce" envconfig:"SETTINGS_DEBOUNCE" validate:"gte=0"`

	// BackupDir is where exports land when no output path is given.
	BackupDir string `yaml:"backup_dir" envconfig:"BACKUP_DIR"`

	// DueDays is the offset from the issue date used for default due dates.
	DueDays int `yaml:"due_days" envconfig:"DUE_DAYS" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:         "quickbill.db",
		LogLevel:         "warn",
		LogFormat:        "console",
		LogOutput:        "stderr",
		SettingsDebounce: 2 * time.Second,
		BackupDir:        ".",
		DueDays:          30,
	}
}

// Load builds the configuration. An explicit path must exist; an empty path
// falls back to DefaultFile if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	return validator.New().Struct(c)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.Output = c.LogOutput
	return lc
}
