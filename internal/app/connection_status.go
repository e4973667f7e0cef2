package app

import (
	"fmt"
	"strings"

	"github.com/yunzii-kb/smartble/internal/config"
	"github.com/yunzii-kb/smartble/internal/events"
)

// SerialTarget formats the port the way transport.SerialPort reports it.
func SerialTarget(cfg config.SerialConfig) string {
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		return ""
	}
	return fmt.Sprintf("%s@%d", port, cfg.Baud)
}

// ConnectionStatusFromConfig is the status shown before the radio service
// has reported anything.
func ConnectionStatusFromConfig(cfg config.SerialConfig) events.ConnStatus {
	status := events.ConnStatus{
		State:         events.ConnectionStateDisconnected,
		TransportName: "serial",
		Target:        SerialTarget(cfg),
	}
	if status.Target != "" {
		status.State = events.ConnectionStateConnecting
	}

	return status
}
