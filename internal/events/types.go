package events

import (
	"time"

	"github.com/yunzii-kb/smartble/internal/link"
)

// ConnectionState describes the serial port lifecycle.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateReconnecting ConnectionState = "reconnecting"
)

// ConnStatus is a snapshot of the UART connection to the radio module.
type ConnStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// LinkStatus is a snapshot of the wireless link reported by the module.
type LinkStatus struct {
	Mode      link.Mode
	Connected bool
	Pairing   bool
	Timestamp time.Time
}

// LEDs carries the host keyboard indicator bitmask.
type LEDs struct {
	Mask      uint8
	Timestamp time.Time
}

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// RawFrame carries wire traffic for captures and debug output.
type RawFrame struct {
	Direction Direction
	Hex       string
	Len       int
	Timestamp time.Time
}
