package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrInvalidState means an operation was requested while the connection
// state machine was in an incompatible state.
var ErrInvalidState = errors.New("ble: invalid state")

// State is the connection lifecycle state. There is exactly one active link
// at a time; Error and Disconnected are recoverable by scanning or
// connecting again.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateConnected
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Manager. UUIDs identify the command service and its
// write/notify characteristics; they are opaque here and replaceable for
// firmware variants.
type Options struct {
	ServiceUUID     string
	WriteCharUUID   string
	NotifyCharUUID  string
	ConnectTimeout  time.Duration // link establishment bound
	DiscoverTimeout time.Duration // characteristic resolution bound
	MatchNames      []string      // candidate classification substrings
}

// DefaultOptions returns the identifiers and timeouts for the stock Instax
// firmware.
func DefaultOptions() Options {
	return Options{
		ServiceUUID:     ServiceUUID,
		WriteCharUUID:   WriteCharUUID,
		NotifyCharUUID:  NotifyCharUUID,
		ConnectTimeout:  30 * time.Second,
		DiscoverTimeout: 10 * time.Second,
	}
}

// Manager owns the single active link: it runs the connection state machine,
// delegates discovery to its Scanner, resolves the command and notification
// characteristics on connect, and exposes the write path. All link-layer
// events arrive on the radio stack's goroutine; state is guarded by one
// mutex, and observers are invoked with the lock released.
type Manager struct {
	adapter Adapter
	scanner *Scanner
	opts    Options

	mu         sync.Mutex
	state      State
	conn       Connection
	cmdChar    Characteristic
	notifyChar Characteristic

	stateObserver  func(State)
	notifyObserver func([]byte)
}

// NewManager creates a Manager in the Idle state.
func NewManager(adapter Adapter, opts Options) *Manager {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.DiscoverTimeout <= 0 {
		opts.DiscoverTimeout = 10 * time.Second
	}
	m := &Manager{
		adapter: adapter,
		scanner: NewScanner(adapter, opts.MatchNames),
		opts:    opts,
		state:   StateIdle,
	}
	// A bounded scan that winds down on its own returns the machine to
	// Idle, unless something else (a connect) already moved it on.
	m.scanner.onIdle = func() {
		m.mu.Lock()
		if m.state != StateScanning {
			m.mu.Unlock()
			return
		}
		m.state = StateIdle
		obs := m.stateObserver
		m.mu.Unlock()
		if obs != nil {
			obs(StateIdle)
		}
	}
	return m
}

// Scanner returns the Manager's device scanner.
func (m *Manager) Scanner() *Scanner { return m.scanner }

// OnStateChange registers the observer notified synchronously on every state
// transition, from whatever goroutine the triggering event arrived on. The
// last registration wins.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateObserver = fn
}

// OnNotify registers the observer for raw inbound notification bytes from
// the printer. The bytes are forwarded undecoded. The last registration wins.
func (m *Manager) OnNotify(fn func([]byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyObserver = fn
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the link is up with both channel handles
// resolved.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// setState transitions the machine and notifies the observer outside the
// lock, so an observer may query the Manager without deadlocking.
func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	obs := m.stateObserver
	m.mu.Unlock()
	if obs != nil {
		obs(s)
	}
}

// StartScan begins device discovery. duration == 0 scans until StopScan.
// Starting while already scanning is a no-op; starting while connecting or
// connected fails with ErrInvalidState.
func (m *Manager) StartScan(duration time.Duration) error {
	m.mu.Lock()
	switch m.state {
	case StateScanning:
		m.mu.Unlock()
		return nil
	case StateConnecting, StateConnected:
		st := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot scan while %s", ErrInvalidState, st)
	}
	m.mu.Unlock()

	if err := m.adapter.Enable(); err != nil {
		return err
	}
	m.setState(StateScanning)
	return m.scanner.Start(duration)
}

// StopScan cancels an active scan. Idempotent.
func (m *Manager) StopScan() {
	m.scanner.Stop()
}

// Connect establishes the link to the device at address, then resolves the
// command and notification characteristics; the connection is not usable for
// writes until both are resolved. Fails with ErrInvalidState if a link is
// already up or being set up. An in-progress scan is cancelled first.
func (m *Manager) Connect(address string) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateConnected:
		st := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: already %s", ErrInvalidState, st)
	}
	m.state = StateConnecting
	obs := m.stateObserver
	m.mu.Unlock()

	m.scanner.Stop()
	if obs != nil {
		obs(StateConnecting)
	}

	if err := m.adapter.Enable(); err != nil {
		m.setState(StateError)
		return err
	}

	slog.Info("[BLE] connecting", "address", address)
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.ConnectTimeout)
	defer cancel()
	conn, err := m.adapter.Connect(ctx, address)
	if err != nil {
		m.setState(StateError)
		return err
	}

	cmdChar, notifyChar, err := m.resolveChannels(conn)
	if err != nil {
		conn.Disconnect()
		m.setState(StateError)
		return err
	}

	if err := notifyChar.Subscribe(m.handleNotify); err != nil {
		conn.Disconnect()
		m.setState(StateError)
		return fmt.Errorf("ble: subscribe to notifications: %w", err)
	}

	conn.OnDisconnect(func() {
		slog.Warn("[BLE] link dropped")
		m.mu.Lock()
		if m.state != StateConnected {
			m.mu.Unlock()
			return
		}
		m.clearLinkLocked()
		m.state = StateDisconnected
		obs := m.stateObserver
		m.mu.Unlock()
		if obs != nil {
			obs(StateDisconnected)
		}
	})

	m.mu.Lock()
	m.conn = conn
	m.cmdChar = cmdChar
	m.notifyChar = notifyChar
	m.mu.Unlock()
	m.setState(StateConnected)

	slog.Info("[BLE] connected", "address", address)
	return nil
}

// resolveChannels discovers the write and notify characteristics within the
// discovery timeout.
func (m *Manager) resolveChannels(conn Connection) (cmd, notify Characteristic, err error) {
	type result struct {
		cmd    Characteristic
		notify Characteristic
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		cmdChar, err := conn.DiscoverCharacteristic(m.opts.ServiceUUID, m.opts.WriteCharUUID)
		if err != nil {
			ch <- result{err: fmt.Errorf("ble: resolve command channel: %w", err)}
			return
		}
		notifyChar, err := conn.DiscoverCharacteristic(m.opts.ServiceUUID, m.opts.NotifyCharUUID)
		if err != nil {
			ch <- result{err: fmt.Errorf("ble: resolve notification channel: %w", err)}
			return
		}
		ch <- result{cmd: cmdChar, notify: notifyChar}
	}()

	select {
	case r := <-ch:
		return r.cmd, r.notify, r.err
	case <-time.After(m.opts.DiscoverTimeout):
		return nil, nil, fmt.Errorf("ble: characteristic discovery timed out after %s", m.opts.DiscoverTimeout)
	}
}

// handleNotify forwards raw printer notifications to the registered observer.
func (m *Manager) handleNotify(data []byte) {
	m.mu.Lock()
	obs := m.notifyObserver
	m.mu.Unlock()
	if obs != nil {
		obs(data)
	}
}

// Disconnect tears down the active link. A no-op success when no link is up.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return nil
	}

	err := conn.Disconnect()

	m.mu.Lock()
	m.clearLinkLocked()
	m.state = StateDisconnected
	obs := m.stateObserver
	m.mu.Unlock()
	if obs != nil {
		obs(StateDisconnected)
	}

	if err != nil {
		return fmt.Errorf("ble: disconnect: %w", err)
	}
	return nil
}

// Write sends one command packet over the resolved command channel. Fails
// with ErrInvalidState unless connected with the channel resolved.
func (m *Manager) Write(data []byte) error {
	m.mu.Lock()
	if m.state != StateConnected || m.cmdChar == nil {
		st := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: write while %s", ErrInvalidState, st)
	}
	cmdChar := m.cmdChar
	m.mu.Unlock()

	if err := cmdChar.Write(data); err != nil {
		return fmt.Errorf("ble: write: %w", err)
	}
	return nil
}

// clearLinkLocked resets the link handles. Caller must hold mu. Clearing on
// every exit from Connected lets the next Connect start clean.
func (m *Manager) clearLinkLocked() {
	m.conn = nil
	m.cmdChar = nil
	m.notifyChar = nil
}
