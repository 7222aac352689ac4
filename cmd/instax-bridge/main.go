// Command instax-bridge drives a Fujifilm Instax printer over BLE: scan for
// printers, then push a photo to one.
//
// Usage:
//
//	instax-bridge [flags] scan
//	instax-bridge [flags] print -address <addr> -image <file>
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/ble"
	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/config"
	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/imaging"
	"github.com/dgwilson/ESP32-Instax-Bridge-sub001/internal/instax"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/instax-bridge/config.yaml)")
	address := flag.String("address", "", "printer address (from a previous scan)")
	imagePath := flag.String("image", "", "photo to print")
	modelName := flag.String("model", "", "printer model: mini, square, or wide (default: from config)")
	duration := flag.Int("duration", 0, "scan duration in seconds, 0 for config default")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	setLogLevel(cfg.LogLevel)

	switch flag.Arg(0) {
	case "scan":
		if *duration > 0 {
			cfg.Scan.DurationSec = *duration
		}
		if err := runScan(cfg); err != nil {
			log.Fatalf("scan: %v", err)
		}
	case "print":
		if *modelName != "" {
			cfg.Printer.Model = *modelName
		}
		if err := runPrint(cfg, *address, *imagePath); err != nil {
			log.Fatalf("print: %v", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: instax-bridge [flags] scan|print")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

// runScan discovers printers for the configured duration and lists them.
func runScan(cfg *config.Config) error {
	manager := ble.NewManager(ble.NewHardwareAdapter(), cfg.ManagerOptions())
	manager.Scanner().OnDiscover(func(d ble.Device) {
		tag := ""
		if d.Candidate {
			tag = " (instax)"
		}
		fmt.Printf("  %s [%s] RSSI=%d%s\n", d.Name, d.Address, d.RSSI, tag)
	})

	scanFor := time.Duration(cfg.Scan.DurationSec) * time.Second
	fmt.Printf("Scanning for %s...\n", scanFor)
	if err := manager.StartScan(scanFor); err != nil {
		return err
	}

	// Bounded scans wind down on their own; give the radio a beat to flush.
	time.Sleep(scanFor + 500*time.Millisecond)
	manager.StopScan()

	devices := manager.Scanner().Discovered()
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}
	fmt.Printf("%d device(s) found. Print with:\n", len(devices))
	for _, d := range devices {
		if d.Candidate {
			fmt.Printf("  instax-bridge print -address %s -image photo.jpg\n", d.Address)
		}
	}
	return nil
}

// runPrint connects to the printer at address and prints the image file.
func runPrint(cfg *config.Config, address, imagePath string) error {
	if address == "" {
		return fmt.Errorf("-address is required (run a scan first)")
	}
	if imagePath == "" {
		return fmt.Errorf("-image is required")
	}

	model, err := instax.ParseModel(cfg.Printer.Model)
	if err != nil {
		return err
	}
	profile, err := instax.ModelProfile(model)
	if err != nil {
		return err
	}

	img, err := imaging.Load(imagePath)
	if err != nil {
		return err
	}
	data, err := imaging.Prepare(img, profile.Width, profile.Height, profile.MaxFileSize)
	if err != nil {
		return err
	}
	log.Printf("Prepared %s: %dx%d, %d bytes", imagePath, profile.Width, profile.Height, len(data))

	manager := ble.NewManager(ble.NewHardwareAdapter(), cfg.ManagerOptions())
	manager.OnStateChange(func(s ble.State) {
		log.Printf("Link: %s", s)
	})
	manager.OnNotify(func(raw []byte) {
		// Printer responses are not decoded; log them for protocol digging.
		slog.Debug("printer notification", "bytes", fmt.Sprintf("%x", raw))
	})

	if err := manager.Connect(address); err != nil {
		return err
	}
	defer manager.Disconnect()

	printer := instax.NewPrinter(manager.Transport(), cfg.PrintOptions())

	// Ctrl+C aborts the job cleanly instead of leaving the printer mid-transfer.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if sig, ok := <-sigCh; ok {
			log.Printf("Received %s, aborting print...", sig)
			printer.Abort()
		}
	}()

	lastPercent := -1
	err = printer.Print(data, model, func(p instax.Progress) {
		switch p.Phase {
		case instax.PhaseSendingData:
			if p.Percent != lastPercent {
				log.Printf("Sending: %d%% (%d/%d bytes)", p.Percent, p.BytesSent, p.TotalBytes)
				lastPercent = p.Percent
			}
		case instax.PhaseError:
			log.Printf("Print failed: %s", p.Err)
		default:
			log.Printf("Phase: %s", p.Phase)
		}
	})
	if err != nil {
		return err
	}

	fmt.Println("Print complete. The photo is developing.")
	return nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}

// setLogLevel applies the configured level to the default slog logger.
func setLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	// slog.SetLogLoggerLevel requires Go 1.22; this is the closest
	// equivalent available on the Go 1.21 toolchain.
	slog.SetDefault(slog.New(slog.NewTextHandler(log.Writer(), &slog.HandlerOptions{Level: l})))
}
