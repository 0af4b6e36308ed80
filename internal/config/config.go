package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mgpai22/lysync/internal/lyrics"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "lysync.yaml"

// runtime settings, file values override defaults and environment overrides both
type Config struct {
	Server struct {
		HTTPAddr          string `yaml:"http_addr"`
		WSAddr            string `yaml:"ws_addr"`
		MaxMessageBytes   int64  `yaml:"max_message_bytes"`
		KeepAliveSeconds  int    `yaml:"keep_alive_seconds"`
		SubscriberBacklog int    `yaml:"subscriber_backlog"`
	} `yaml:"server"`

	Paths struct {
		SongsDir   string `yaml:"songs_dir"`
		ExportsDir string `yaml:"exports_dir"`
		CoversDir  string `yaml:"covers_dir"`
	} `yaml:"paths"`

	Animation lyrics.AnimationConfig `yaml:"animation"`

	Conversion struct {
		TranslationToleranceMs int  `yaml:"translation_tolerance_ms"`
		FinalLineTailMs        int  `yaml:"final_line_tail_ms"`
		LRCDefaultDurationMs   int  `yaml:"lrc_default_duration_ms"`
		LRCMaxGapMs            int  `yaml:"lrc_max_gap_ms"`
		NormalizeDoubleParens  bool `yaml:"normalize_double_parens"`
	} `yaml:"conversion"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Translate struct {
		Provider    string `yaml:"provider"`
		Model       string `yaml:"model"`
		Concurrency int    `yaml:"concurrency"`
		BatchSize   int    `yaml:"batch_size"`
	} `yaml:"translate"`

	path string
}

func defaultConfig() *Config {
	c := &Config{}

	c.Server.HTTPAddr = ":5000"
	c.Server.WSAddr = ":11444"
	c.Server.MaxMessageBytes = 64 << 20
	c.Server.KeepAliveSeconds = 15
	c.Server.SubscriberBacklog = 1000

	c.Paths.SongsDir = "songs"
	c.Paths.ExportsDir = "exports"
	c.Paths.CoversDir = "songs"

	c.Animation = lyrics.DefaultAnimationConfig()

	c.Conversion.TranslationToleranceMs = 300
	c.Conversion.FinalLineTailMs = 10000
	c.Conversion.LRCDefaultDurationMs = 5000
	c.Conversion.LRCMaxGapMs = 30000
	c.Conversion.NormalizeDoubleParens = true

	c.Redis.Prefix = "lysync"

	c.Translate.Provider = "gemini"
	c.Translate.Concurrency = 3
	c.Translate.BatchSize = 50

	return c
}

// Default returns the built-in configuration with environment overrides applied
func Default() *Config {
	c := defaultConfig()
	c.applyEnv()
	return c
}

// Load reads path over the defaults. A missing file at the default path is
// not an error; a missing file that was asked for explicitly is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := defaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg.path = ""
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// file the config was read from, empty when defaults were used
func (c *Config) Path() string {
	return c.path
}

// .env is optional; real environment variables win over it
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.HTTPAddr, "LYSYNC_HTTP_ADDR")
	setString(&c.Server.WSAddr, "LYSYNC_WS_ADDR")
	setString(&c.Paths.SongsDir, "LYSYNC_SONGS_DIR")
	setString(&c.Paths.ExportsDir, "LYSYNC_EXPORTS_DIR")
	setString(&c.Paths.CoversDir, "LYSYNC_COVERS_DIR")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Translate.Provider, "LYSYNC_TRANSLATE_PROVIDER")

	if v := os.Getenv("LYSYNC_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Redis.Enabled = b
		}
	}
}
