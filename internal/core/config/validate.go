package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskdeck/internal/core/styles"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// Validate checks that the configuration is complete and well formed.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("supabase.url", c.Supabase.URL, serviceURL),
		criterio.Run("supabase.anon_key", c.Supabase.AnonKey, requiredEnv("SUPABASE_ANON_KEY")),
		criterio.Run("supabase.table", c.Supabase.Table, tableName),
		criterio.Run("tui.theme", c.TUI.Theme, themeExists),
		criterio.Run("tui.default_filter", c.TUI.DefaultFilter, filterName),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func serviceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("required (set SUPABASE_URL)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must include a host")
	}
	return nil
}

func requiredEnv(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("required (set %s)", name)
		}
		return nil
	}
}

func tableName(name string) error {
	if name == "" {
		return errors.New("required")
	}
	if strings.ContainsAny(name, "/?&=# ") {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

func themeExists(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

func filterName(name string) error {
	_, err := task.ParseFilter(name)
	return err
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return errors.New("data directory cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
