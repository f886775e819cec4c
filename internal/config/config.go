// Package config loads default switches for the converters from a TOML file.
//
//	skip = true
//	recursive = false
//	compress = false
//	log_level = "info"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is returned for values the converters cannot use
var ErrInvalidConfig = errors.New("invalid config")

// Config holds defaults that command line flags override
type Config struct {
	Skip      bool   `toml:"skip"`
	Recursive bool   `toml:"recursive"`
	Compress  bool   `toml:"compress"`
	LogLevel  string `toml:"log_level"`
}

// Default returns the settings used when no config file is given
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the log level
func (c Config) Validate() error {
	_, err := ParseLevel(c.LogLevel)
	return err
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
}
