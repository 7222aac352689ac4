package ble

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// MaxDiscovered bounds the discovered-device set. Discoveries past the
	// cap are dropped silently; discovery is best-effort.
	MaxDiscovered = 10

	// maxNameLen bounds stored advertisement names.
	maxNameLen = 31
)

// DefaultMatchNames are the substrings that, appearing case-insensitively in
// an advertised name, classify a device as a candidate printer.
var DefaultMatchNames = []string{"instax", "link", "share"}

// Device is a discovered peripheral after dedup and classification.
type Device struct {
	Name      string
	Address   string
	RSSI      int
	Candidate bool // advertised name matched the printer product line
}

// Scanner drives radio discovery and maintains a bounded, insertion-ordered
// set of unique devices. A device is recorded once per scan; later sightings
// of the same address are ignored.
type Scanner struct {
	adapter    Adapter
	matchNames []string // lowercased

	mu       sync.Mutex
	scanning bool
	cancel   context.CancelFunc
	devices  []Device
	seen     map[string]bool
	observer func(Device)
	onIdle   func() // fires after a scan winds down
}

// NewScanner creates a Scanner. matchNames defaults to DefaultMatchNames
// when empty.
func NewScanner(adapter Adapter, matchNames []string) *Scanner {
	if len(matchNames) == 0 {
		matchNames = DefaultMatchNames
	}
	lowered := make([]string, len(matchNames))
	for i, m := range matchNames {
		lowered[i] = strings.ToLower(m)
	}
	return &Scanner{
		adapter:    adapter,
		matchNames: lowered,
		seen:       make(map[string]bool),
	}
}

// OnDiscover registers the observer called once per newly recorded device,
// candidate or not. The last registration wins.
func (s *Scanner) OnDiscover(fn func(Device)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Start begins discovery and resets the device set. duration == 0 scans
// until Stop is called. Starting while already scanning is a no-op.
func (s *Scanner) Start(duration time.Duration) error {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil
	}

	s.devices = nil
	s.seen = make(map[string]bool)

	ctx := context.Background()
	var cancel context.CancelFunc
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	s.scanning = true
	s.cancel = cancel
	s.mu.Unlock()

	slog.Info("[BLE] scan started", "duration", duration)

	go func() {
		if err := s.adapter.Scan(ctx, s.handleAdvertisement); err != nil {
			slog.Error("[BLE] scan failed", "error", err)
		}
		cancel()

		s.mu.Lock()
		s.scanning = false
		s.cancel = nil
		onIdle := s.onIdle
		s.mu.Unlock()

		slog.Info("[BLE] scan finished")
		if onIdle != nil {
			onIdle()
		}
	}()
	return nil
}

// Stop cancels an active scan. Stopping when not scanning succeeds silently.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Scanning reports whether a scan is active.
func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Discovered returns a snapshot of the device set in discovery order.
func (s *Scanner) Discovered() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Clear empties the device set.
func (s *Scanner) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = nil
	s.seen = make(map[string]bool)
}

// handleAdvertisement runs on the radio stack's event goroutine.
func (s *Scanner) handleAdvertisement(adv Advertisement) {
	name := adv.Name
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	dev := Device{
		Name:      name,
		Address:   adv.Address,
		RSSI:      adv.RSSI,
		Candidate: s.isCandidate(name),
	}

	s.mu.Lock()
	if s.seen[dev.Address] || len(s.devices) >= MaxDiscovered {
		s.mu.Unlock()
		return
	}
	s.seen[dev.Address] = true
	s.devices = append(s.devices, dev)
	observer := s.observer
	s.mu.Unlock()

	slog.Info("[BLE] discovered", "name", dev.Name, "address", dev.Address,
		"rssi", dev.RSSI, "candidate", dev.Candidate)

	if observer != nil {
		observer(dev)
	}
}

// isCandidate reports whether an advertised name matches the printer
// product line. Empty names never match.
func (s *Scanner) isCandidate(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, m := range s.matchNames {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
