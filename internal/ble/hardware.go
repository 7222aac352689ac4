package ble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// HardwareAdapter wraps tinygo-org/bluetooth over the platform's native BLE
// stack. On macOS device addresses are CoreBluetooth UUID strings rather
// than MAC addresses; the Address fields carry whichever form the platform
// reports, and they are only ever compared and passed back verbatim.
type HardwareAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*hardwareConnection // keyed by device address
}

// NewHardwareAdapter creates an Adapter over the default system adapter.
func NewHardwareAdapter() *HardwareAdapter {
	return &HardwareAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*hardwareConnection),
	}
}

func (a *HardwareAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	// Adapter-level connect/disconnect handler. tinygo/bluetooth fires this
	// with connected=false when a peripheral drops the link.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		a.mu.Unlock()
		if ok && conn.disconnectCb != nil {
			conn.disconnectCb()
		}
	})

	return nil
}

func (a *HardwareAdapter) Scan(ctx context.Context, onAdv func(Advertisement)) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	// The printers advertise by name only, so every sighting is forwarded;
	// classification happens in the Scanner.
	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		onAdv(Advertisement{
			Name:    result.LocalName(),
			Address: result.Address.String(),
			RSSI:    int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ble: scan: %w", err)
	}
	return nil
}

func (a *HardwareAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// Wrap it so our ctx deadline is also respected.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect will eventually time out or succeed on its
		// own; we can't cancel it from here, but we return immediately.
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		conn := &hardwareConnection{device: &result.device}

		// Track the connection so the adapter-level disconnect handler can
		// find it and fire its OnDisconnect callback.
		a.mu.Lock()
		a.connections[address] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// Compile-time check that HardwareAdapter implements Adapter.
var _ Adapter = (*HardwareAdapter)(nil)

type hardwareConnection struct {
	device       *bluetooth.Device
	disconnectCb func()
}

func (c *hardwareConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	svcUUID, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, err
	}
	charUUIDParsed, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", serviceUUID)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{charUUIDParsed})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", charUUID)
	}

	return &hardwareCharacteristic{char: &chars[0]}, nil
}

func (c *hardwareConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *hardwareConnection) OnDisconnect(cb func()) {
	c.disconnectCb = cb
}

type hardwareCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

// Write uses write-without-response: the Instax protocol paces commands with
// fixed delays instead of per-write acks.
func (c *hardwareCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *hardwareCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}
