// Package ble implements the central-role link to an Instax printer:
// device discovery, the single-connection lifecycle state machine, and the
// raw command/notification transport the print pipeline runs over.
package ble

import "context"

// Instax GATT identifiers. The printer exposes one vendor service with a
// write characteristic for commands and a notify characteristic for
// responses. Some firmware variants reshuffle these, so they are carried as
// configuration rather than baked into the connection logic.
const (
	ServiceUUID    = "70954782-2d83-473d-9e5f-81e1d02d5273"
	WriteCharUUID  = "70954783-2d83-473d-9e5f-81e1d02d5273"
	NotifyCharUUID = "70954784-2d83-473d-9e5f-81e1d02d5273"
)

// Advertisement is one raw scan sighting, before dedup and classification.
type Advertisement struct {
	Name    string
	Address string
	RSSI    int
}

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan streams advertisements to onAdv until ctx is cancelled.
	Scan(ctx context.Context, onAdv func(Advertisement)) error
	// Connect establishes a connection to the device at the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
