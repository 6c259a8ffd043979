// Package config handles configuration loading and validation for taskdeck.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// Config holds the application configuration.
type Config struct {
	Supabase SupabaseConfig `yaml:"supabase"`
	TUI      TUIConfig      `yaml:"tui"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// SupabaseConfig locates the remote data service.
type SupabaseConfig struct {
	URL     string        `yaml:"url" env:"SUPABASE_URL"`
	AnonKey string        `yaml:"anon_key" env:"SUPABASE_ANON_KEY"`
	Table   string        `yaml:"table" env:"TASKDECK_TABLE"`
	Timeout time.Duration `yaml:"timeout" env:"TASKDECK_TIMEOUT"`
}

// TUIConfig holds display preferences.
type TUIConfig struct {
	Theme         string `yaml:"theme" env:"TASKDECK_THEME"`
	DefaultFilter string `yaml:"default_filter" env:"TASKDECK_DEFAULT_FILTER"`
}

// ConfigError reports configuration that prevents startup.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns a Config with sensible defaults. The service URL and
// key have no default.
func DefaultConfig() Config {
	return Config{
		Supabase: SupabaseConfig{
			Table:   "todos",
			Timeout: 10 * time.Second,
		},
		TUI: TUIConfig{
			Theme:         styles.DefaultTheme,
			DefaultFilter: string(task.FilterAll),
		},
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at configPath, the dotenv file at envFile and the process
// environment. Missing files are skipped. A *ConfigError is returned when
// the result is unusable.
func Load(configPath, envFile, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("parse config file: %w", err)}
			}
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			// godotenv never overrides variables already set in the environment.
			if err := godotenv.Load(envFile); err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("load env file %s: %w", envFile, err)}
			}
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read environment: %w", err)}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Supabase.Table == "" {
		c.Supabase.Table = defaults.Supabase.Table
	}
	if c.Supabase.Timeout <= 0 {
		c.Supabase.Timeout = defaults.Supabase.Timeout
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.DefaultFilter == "" {
		c.TUI.DefaultFilter = defaults.TUI.DefaultFilter
	}
}

// Filter returns the configured default filter. Validate guarantees it parses.
func (c *Config) Filter() task.Filter {
	f, err := task.ParseFilter(c.TUI.DefaultFilter)
	if err != nil {
		return task.FilterAll
	}
	return f
}

// SessionFile returns the path where the signed-in session is persisted.
func (c *Config) SessionFile() string {
	return filepath.Join(c.DataDir, "session.json")
}
