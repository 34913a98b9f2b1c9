package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_DefaultsApplyWhenUnset(t *testing.T) {
	t.Setenv("MCP_ANKI_DB_PATH", "")
	t.Setenv("MCP_ANKI_MEDIA_DIR", "")

	v := viper.New()
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("want default log level info, got %q", cfg.LogLevel)
	}
	if cfg.Readonly {
		t.Fatalf("want readonly default false")
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("MCP_ANKI_DB_PATH", "/tmp/custom/anki.db")

	v := viper.New()
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom/anki.db" {
		t.Fatalf("want env override, got %q", cfg.DBPath)
	}
}
