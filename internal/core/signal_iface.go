package core

// Frame is a raw serialized payload handed to a transport.
type Frame []byte

// ConnID is an opaque transport-assigned connection identifier.
// Connections are never compared or stored by reference across components;
// everything resolves through the registry by this handle.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
