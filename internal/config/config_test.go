package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingDefaultPathUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("expected empty path, got %q", cfg.Path())
	}
	if cfg.Server.WSAddr != ":11444" {
		t.Errorf("expected default ws addr, got %q", cfg.Server.WSAddr)
	}
	if cfg.Conversion.TranslationToleranceMs != 300 {
		t.Errorf("expected tolerance 300, got %d", cfg.Conversion.TranslationToleranceMs)
	}
	if cfg.Animation.ExitDuration != 500 {
		t.Errorf("expected exit duration 500, got %d", cfg.Animation.ExitDuration)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lysync.yaml")
	content := `
server:
  ws_addr: "127.0.0.1:12000"
animation:
  exit_duration: 800
  use_computed_disappear: true
conversion:
  translation_tolerance_ms: 150
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.WSAddr != "127.0.0.1:12000" {
		t.Errorf("expected overridden ws addr, got %q", cfg.Server.WSAddr)
	}
	if cfg.Server.HTTPAddr != ":5000" {
		t.Errorf("expected default http addr kept, got %q", cfg.Server.HTTPAddr)
	}
	if cfg.Animation.ExitDuration != 800 || !cfg.Animation.UseComputedDisappear {
		t.Errorf("unexpected animation config: %+v", cfg.Animation)
	}
	if cfg.Animation.PlaceholderDuration != 50 {
		t.Errorf("expected default placeholder kept, got %d", cfg.Animation.PlaceholderDuration)
	}
	if cfg.Conversion.TranslationToleranceMs != 150 {
		t.Errorf("expected tolerance 150, got %d", cfg.Conversion.TranslationToleranceMs)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %q, got %q", path, cfg.Path())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LYSYNC_HTTP_ADDR", "0.0.0.0:8080")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LYSYNC_REDIS_ENABLED", "true")

	path := filepath.Join(t.TempDir(), "lysync.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_addr: \":6000\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("expected env http addr, got %q", cfg.Server.HTTPAddr)
	}
	if !cfg.Redis.Enabled || cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "bad address",
			mutate:  func(c *Config) { c.Server.WSAddr = "11444" },
			wantErr: "server.ws_addr",
		},
		{
			name:    "negative duration",
			mutate:  func(c *Config) { c.Animation.ExitDuration = -1 },
			wantErr: "animation durations",
		},
		{
			name:    "offset out of range",
			mutate:  func(c *Config) { c.Animation.LineDisplayOffset = 2 },
			wantErr: "line_display_offset",
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.Redis.Enabled = true; c.Redis.URL = "" },
			wantErr: "redis.enabled",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Translate.Concurrency = 0 },
			wantErr: "translate.concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
