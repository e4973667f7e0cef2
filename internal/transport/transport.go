package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by operations on a port that is not open.
var ErrNotConnected = errors.New("transport is not connected")

// Port is the byte-level view of the UART the link core works with. Available
// and ReadByte never block; the core drains whatever has been buffered.
type Port interface {
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// Conn is a Port with a connection lifecycle, driven by the radio service.
type Conn interface {
	Port
	Name() string
	Target() string
	Connect(ctx context.Context) error
	Close() error
	// Done is closed when the underlying device fails after Connect.
	Done() <-chan struct{}
	Err() error
}
