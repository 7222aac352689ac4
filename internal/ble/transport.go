package ble

// Transport is the minimal synchronous surface over the resolved command
// and notification channels. One Send is exactly one link-layer write; there
// is no buffering or batching.
type Transport struct {
	m *Manager
}

// Transport returns the Manager's command/notification transport. It is only
// usable while the Manager is connected.
func (m *Manager) Transport() *Transport {
	return &Transport{m: m}
}

// Send writes one command packet to the printer.
func (t *Transport) Send(data []byte) error {
	return t.m.Write(data)
}

// OnNotify registers the observer for raw inbound notification bytes. The
// last registration wins.
func (t *Transport) OnNotify(fn func([]byte)) {
	t.m.OnNotify(fn)
}
