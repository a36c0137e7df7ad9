package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all engine settings. Zero values defer to Default.
type Config struct {
	// Shell is the executable to spawn; empty means $SHELL, then /bin/sh.
	Shell string `toml:"shell"`
	// Args are passed to the shell after its name.
	Args []string `toml:"args"`
	// PromptMarker is the literal text the tracker matches when the
	// shell does not emit OSC 133 markers. Empty disables the fallback.
	PromptMarker string `toml:"prompt_marker"`
	// ScrollbackLimit caps retained scrollback rows. Zero retains nothing.
	ScrollbackLimit int `toml:"scrollback_limit"`
	// RecordLimit caps retained command records. Zero means unbounded.
	RecordLimit int `toml:"record_limit"`
	// TrimPolicy is "none", "trailing", or "both".
	TrimPolicy string `toml:"trim_policy"`
	// TermGrace is how long to wait between SIGTERM and SIGKILL on
	// close, as a Go duration string.
	TermGrace string `toml:"term_grace"`
	// LogLevel is "debug", "info", "warn", or "error".
	LogLevel string `toml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		ScrollbackLimit: 10000,
		RecordLimit:     1000,
		TrimPolicy:      "trailing",
		TermGrace:       "5s",
		LogLevel:        "info",
	}
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. A missing file is not an error; the defaults
// plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied,
// for hosts that run without a config file.
func FromEnv() Config {
	cfg := Default()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

// applyEnv overrides fields from SHELLPAD_* variables. An empty value
// counts as set, matching os.LookupEnv semantics.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("SHELLPAD_SHELL"); ok {
		c.Shell = v
	}
	if v, ok := os.LookupEnv("SHELLPAD_PROMPT_MARKER"); ok {
		c.PromptMarker = v
	}
	if v, ok := os.LookupEnv("SHELLPAD_SCROLLBACK_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ScrollbackLimit = n
		}
	}
	if v, ok := os.LookupEnv("SHELLPAD_RECORD_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.RecordLimit = n
		}
	}
	if v, ok := os.LookupEnv("SHELLPAD_TRIM_POLICY"); ok {
		c.TrimPolicy = v
	}
	if v, ok := os.LookupEnv("SHELLPAD_TERM_GRACE"); ok {
		c.TermGrace = v
	}
	if v, ok := os.LookupEnv("SHELLPAD_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
}

func (c *Config) normalize() {
	if c.ScrollbackLimit < 0 {
		c.ScrollbackLimit = 0
	}
	if c.RecordLimit < 0 {
		c.RecordLimit = 0
	}
}

// TermGraceDuration parses TermGrace, falling back to the default on
// an empty or malformed value.
func (c Config) TermGraceDuration() time.Duration {
	d, err := time.ParseDuration(c.TermGrace)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
