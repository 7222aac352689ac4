// Package config loads the bridge's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/ble"
	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/instax"
)

// Config holds all application configuration.
type Config struct {
	Scan     ScanConfig    `yaml:"scan"`
	Printer  PrinterConfig `yaml:"printer"`
	Timing   TimingConfig  `yaml:"timing"`
	LogLevel string        `yaml:"log_level"`
}

// ScanConfig holds discovery settings.
type ScanConfig struct {
	DurationSec int      `yaml:"duration_sec"` // 0 scans until stopped
	MatchNames  []string `yaml:"match_names"`  // candidate name substrings
}

// PrinterConfig identifies the target printer and its GATT layout. The
// UUIDs are opaque strings passed straight to the link layer; firmware
// variants that move the service can be handled here without code changes.
type PrinterConfig struct {
	Model              string `yaml:"model"` // mini, square, or wide
	ServiceUUID        string `yaml:"service_uuid"`
	WriteCharUUID      string `yaml:"write_char_uuid"`
	NotifyCharUUID     string `yaml:"notify_char_uuid"`
	ConnectTimeoutSec  int    `yaml:"connect_timeout_sec"`
	DiscoverTimeoutSec int    `yaml:"discover_timeout_sec"`
}

// TimingConfig holds the print pacing delays in milliseconds. Zero values
// fall back to the defaults in instax.DefaultOptions.
type TimingConfig struct {
	StartSettleMS     int `yaml:"start_settle_ms"`
	InterChunkMS      int `yaml:"inter_chunk_ms"`
	EndSettleMS       int `yaml:"end_settle_ms"`
	IndicatorSettleMS int `yaml:"indicator_settle_ms"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "instax-bridge")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			DurationSec: 5,
			MatchNames:  ble.DefaultMatchNames,
		},
		Printer: PrinterConfig{
			Model:              "mini",
			ServiceUUID:        ble.ServiceUUID,
			WriteCharUUID:      ble.WriteCharUUID,
			NotifyCharUUID:     ble.NotifyCharUUID,
			ConnectTimeoutSec:  30,
			DiscoverTimeoutSec: 10,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// ManagerOptions maps the config onto connection manager options.
func (c *Config) ManagerOptions() ble.Options {
	return ble.Options{
		ServiceUUID:     c.Printer.ServiceUUID,
		WriteCharUUID:   c.Printer.WriteCharUUID,
		NotifyCharUUID:  c.Printer.NotifyCharUUID,
		ConnectTimeout:  time.Duration(c.Printer.ConnectTimeoutSec) * time.Second,
		DiscoverTimeout: time.Duration(c.Printer.DiscoverTimeoutSec) * time.Second,
		MatchNames:      c.Scan.MatchNames,
	}
}

// PrintOptions maps the timing config onto print pacing options. Fields
// left at zero keep the stock delay schedule.
func (c *Config) PrintOptions() instax.Options {
	opts := instax.DefaultOptions()
	if c.Timing.StartSettleMS > 0 {
		opts.StartSettle = time.Duration(c.Timing.StartSettleMS) * time.Millisecond
	}
	if c.Timing.InterChunkMS > 0 {
		opts.InterChunk = time.Duration(c.Timing.InterChunkMS) * time.Millisecond
	}
	if c.Timing.EndSettleMS > 0 {
		opts.EndSettle = time.Duration(c.Timing.EndSettleMS) * time.Millisecond
	}
	if c.Timing.IndicatorSettleMS > 0 {
		opts.IndicatorSettle = time.Duration(c.Timing.IndicatorSettleMS) * time.Millisecond
	}
	return opts
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Scan.DurationSec < 0 {
		return fmt.Errorf("scan.duration_sec must be >= 0")
	}

	if _, err := instax.ParseModel(c.Printer.Model); err != nil {
		return fmt.Errorf("printer.model: %w", err)
	}

	if c.Printer.ServiceUUID == "" {
		return fmt.Errorf("printer.service_uuid must not be empty")
	}
	if c.Printer.WriteCharUUID == "" {
		return fmt.Errorf("printer.write_char_uuid must not be empty")
	}
	if c.Printer.NotifyCharUUID == "" {
		return fmt.Errorf("printer.notify_char_uuid must not be empty")
	}

	if c.Printer.ConnectTimeoutSec <= 0 {
		return fmt.Errorf("printer.connect_timeout_sec must be > 0")
	}
	if c.Printer.DiscoverTimeoutSec <= 0 {
		return fmt.Errorf("printer.discover_timeout_sec must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}
