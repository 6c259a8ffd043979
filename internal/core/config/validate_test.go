package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Supabase.URL = "https://demo.supabase.co"
	cfg.Supabase.AnonKey = "anon"
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())
}

func TestValidate_DataDirMayNotExistYet(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = filepath.Join(cfg.DataDir, "later")
	require.NoError(t, cfg.Validate())
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr string
	}{
		{
			name:    "url without scheme",
			mutate:  func(c *Config) { c.Supabase.URL = "demo.supabase.co" },
			field:   "supabase.url",
			wantErr: "http or https",
		},
		{
			name:    "url without host",
			mutate:  func(c *Config) { c.Supabase.URL = "https://" },
			field:   "supabase.url",
			wantErr: "host",
		},
		{
			name:    "blank anon key",
			mutate:  func(c *Config) { c.Supabase.AnonKey = "  " },
			field:   "supabase.anon_key",
			wantErr: "SUPABASE_ANON_KEY",
		},
		{
			name:    "table with query characters",
			mutate:  func(c *Config) { c.Supabase.Table = "todos?select=*" },
			field:   "supabase.table",
			wantErr: "invalid table name",
		},
		{
			name:    "unknown theme",
			mutate:  func(c *Config) { c.TUI.Theme = "solarized" },
			field:   "tui.theme",
			wantErr: "unknown theme",
		},
		{
			name:    "unknown filter",
			mutate:  func(c *Config) { c.TUI.DefaultFilter = "someday" },
			field:   "tui.default_filter",
			wantErr: "unknown filter",
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			field:   "data_dir",
			wantErr: "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := cfg.Validate()

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tt.field, fieldErrs[0].Field)
			assert.Contains(t, fieldErrs[0].Err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(cfg.DataDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	cfg.DataDir = file

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}
