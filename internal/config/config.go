// Package config loads casement's configuration. The file uses a
// dnsmasq-style format (optionName remainingLineIsTheValue), the same shape
// per-user tooling config tends to take, with CASEMENT_* environment
// variables taking precedence over the file.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the shell's tunables. Zero values are replaced by defaults
// in New; loaders only ever tighten or override.
type Config struct {
	// RefreshDebounce is the window within which repeated data-changed
	// signals coalesce into a single native redraw.
	RefreshDebounce time.Duration
	// LogCapacity bounds the bridge logger's retained entries.
	LogCapacity int
	// MinPaneFraction is the minimum share of a split view either pane may
	// occupy. Policy constant territory; configurable mainly for tests.
	MinPaneFraction float64
	// Script is the path of the startup script run on the JS loop.
	Script string
	// Warnings collects non-fatal issues found while loading.
	Warnings []string
}

// Defaults, also used directly by tests.
const (
	DefaultRefreshDebounce = 25 * time.Millisecond
	DefaultLogCapacity     = 1000
	DefaultMinPaneFraction = 0.12
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		RefreshDebounce: DefaultRefreshDebounce,
		LogCapacity:     DefaultLogCapacity,
		MinPaneFraction: DefaultMinPaneFraction,
	}
}

// Path returns the config file path: $CASEMENT_CONFIG if set, otherwise
// ~/.casement/config.
func Path() (string, error) {
	if p := os.Getenv("CASEMENT_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".casement", "config"), nil
}

// Load reads the default config file (missing file is not an error) and
// applies environment overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFromPath reads configuration from path. A missing file yields the
// defaults. Symlinked config files are rejected.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses configuration from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		if err := cfg.set(name, value); err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("option %q: %v", name, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func (c *Config) set(name, value string) error {
	switch name {
	case "refresh-debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("negative duration %v", d)
		}
		c.RefreshDebounce = d
	case "log-capacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("capacity must be positive, got %d", n)
		}
		c.LogCapacity = n
	case "min-pane-fraction":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if f < 0 || f >= 0.5 {
			return fmt.Errorf("fraction %v out of range [0, 0.5)", f)
		}
		c.MinPaneFraction = f
	case "script":
		c.Script = value
	default:
		return fmt.Errorf("unknown option")
	}
	return nil
}

// applyEnv overrides file values from CASEMENT_* variables. Invalid values
// are recorded as warnings, never fatal.
func (c *Config) applyEnv() {
	for name, env := range map[string]string{
		"refresh-debounce":  "CASEMENT_REFRESH_DEBOUNCE",
		"log-capacity":      "CASEMENT_LOG_CAPACITY",
		"min-pane-fraction": "CASEMENT_MIN_PANE_FRACTION",
		"script":            "CASEMENT_SCRIPT",
	} {
		if v := os.Getenv(env); v != "" {
			if err := c.set(name, v); err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %v", env, err))
			}
		}
	}
}
