// Package config loads server configuration from flags, environment
// variables, and built-in defaults via spf13/viper (spec.md §6 CLI/
// Environment), grounded on
// justinlyon12-AnCLI/internal/config/config.go's Load()/setDefaults() shape.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the server's resolved runtime configuration (spec.md §6).
type Config struct {
	DBPath   string `mapstructure:"db_path"`
	MediaDir string `mapstructure:"media_dir"`
	Readonly bool   `mapstructure:"readonly"`
	LogLevel string `mapstructure:"log_level"`
}

// Load resolves configuration from (in increasing precedence) built-in
// defaults, the MCP_ANKI_* environment variables, and any flag values
// already bound into v by the caller's cobra command.
func Load(v *viper.Viper) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	v.SetDefault("db_path", filepath.Join(home, ".mcp-anki", "anki.db"))
	v.SetDefault("media_dir", filepath.Join(home, ".mcp-anki", "media"))
	v.SetDefault("readonly", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("MCP_ANKI")
	v.AutomaticEnv()
	_ = v.BindEnv("db_path", "MCP_ANKI_DB_PATH")
	_ = v.BindEnv("media_dir", "MCP_ANKI_MEDIA_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// EnsureDirs creates the database and media directories if absent.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o700); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(c.MediaDir, 0o700); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	return nil
}
