package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/ble"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
printer:
  model: square
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Printer.Model != "square" {
		t.Errorf("Printer.Model = %q, want %q", cfg.Printer.Model, "square")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields keep their defaults.
	if cfg.Printer.ServiceUUID != ble.ServiceUUID {
		t.Errorf("Printer.ServiceUUID = %q, want default", cfg.Printer.ServiceUUID)
	}
	if cfg.Scan.DurationSec != 5 {
		t.Errorf("Scan.DurationSec = %d, want 5", cfg.Scan.DurationSec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file succeeded, want error")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("printer: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed YAML succeeded, want error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Printer.Model = "polaroid" }},
		{"empty service uuid", func(c *Config) { c.Printer.ServiceUUID = "" }},
		{"empty write uuid", func(c *Config) { c.Printer.WriteCharUUID = "" }},
		{"empty notify uuid", func(c *Config) { c.Printer.NotifyCharUUID = "" }},
		{"zero connect timeout", func(c *Config) { c.Printer.ConnectTimeoutSec = 0 }},
		{"zero discover timeout", func(c *Config) { c.Printer.DiscoverTimeoutSec = 0 }},
		{"negative scan duration", func(c *Config) { c.Scan.DurationSec = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestManagerOptions(t *testing.T) {
	cfg := Default()
	cfg.Printer.ConnectTimeoutSec = 15

	opts := cfg.ManagerOptions()
	if opts.ServiceUUID != ble.ServiceUUID {
		t.Errorf("ServiceUUID = %q, want default", opts.ServiceUUID)
	}
	if opts.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want 15s", opts.ConnectTimeout)
	}
}

func TestPrintOptionsOverrides(t *testing.T) {
	cfg := Default()

	// Zero timing keeps the stock schedule.
	opts := cfg.PrintOptions()
	if opts.InterChunk != 75*time.Millisecond {
		t.Errorf("InterChunk = %v, want 75ms default", opts.InterChunk)
	}
	if opts.IndicatorSettle != time.Second {
		t.Errorf("IndicatorSettle = %v, want 1s default", opts.IndicatorSettle)
	}

	cfg.Timing.InterChunkMS = 120
	opts = cfg.PrintOptions()
	if opts.InterChunk != 120*time.Millisecond {
		t.Errorf("InterChunk = %v, want 120ms override", opts.InterChunk)
	}
}
