// Package config loads the TOML configuration shared by the cmd/
// front ends, in the same configRepr-then-decode shape dnsproxy uses
// for its own file-backed configuration.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the tunables for one engine endpoint and its carrier.
type Config struct {
	ListenAddr     string
	DialAddr       string
	SegmentSize    int
	ResendTimeout  time.Duration
	WindowCapacity int
	DropRate       float64
	CorruptRate    float64
	ReorderRate    float64
	MetricsAddr    string
	LogLevel       string
}

// configRepr is the literal TOML shape; durations are plain seconds
// because the toml package has no native duration type.
type configRepr struct {
	ListenAddr        string  `toml:"listen_addr"`
	DialAddr          string  `toml:"dial_addr"`
	SegmentSize       int     `toml:"segment_size"`
	ResendTimeoutSecs float64 `toml:"resend_timeout_seconds"`
	WindowCapacity    int     `toml:"window_capacity"`
	DropRate          float64 `toml:"fault_drop_rate"`
	CorruptRate       float64 `toml:"fault_corrupt_rate"`
	ReorderRate       float64 `toml:"fault_reorder_rate"`
	MetricsAddr       string  `toml:"metrics_addr"`
	LogLevel          string  `toml:"log_level"`
}

// Default returns a Config populated with the protocol's own defaults,
// suitable as a base before applying a file and flag overrides.
func Default() Config {
	return Config{
		SegmentSize:    512,
		ResendTimeout:  time.Second,
		WindowCapacity: 10000,
		MetricsAddr:    ":9300",
		LogLevel:       "info",
	}
}

// Load reads path as TOML and overlays it onto Default(). An empty
// path skips file loading entirely and is not an error; a path that
// cannot be read or decoded is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var repr configRepr
	if _, err := toml.DecodeFile(path, &repr); err != nil {
		return cfg, errors.Wrapf(err, "config: decode %s", path)
	}

	if repr.ListenAddr != "" {
		cfg.ListenAddr = repr.ListenAddr
	}
	if repr.DialAddr != "" {
		cfg.DialAddr = repr.DialAddr
	}
	if repr.SegmentSize > 0 {
		cfg.SegmentSize = repr.SegmentSize
	}
	if repr.ResendTimeoutSecs > 0 {
		cfg.ResendTimeout = time.Duration(repr.ResendTimeoutSecs * float64(time.Second))
	}
	if repr.WindowCapacity > 0 {
		cfg.WindowCapacity = repr.WindowCapacity
	}
	cfg.DropRate = repr.DropRate
	cfg.CorruptRate = repr.CorruptRate
	cfg.ReorderRate = repr.ReorderRate
	if repr.MetricsAddr != "" {
		cfg.MetricsAddr = repr.MetricsAddr
	}
	if repr.LogLevel != "" {
		cfg.LogLevel = repr.LogLevel
	}

	return cfg, nil
}
