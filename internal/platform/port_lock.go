package platform

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPortLocked means another process already drives the serial port.
var ErrPortLocked = errors.New("serial port is owned by another process")

// ErrPortLockUnsupported means the platform has no lock backend.
var ErrPortLockUnsupported = errors.New("port lock unsupported")

// PortLock is an acquired exclusive claim on a serial port.
type PortLock interface {
	Release() error
}

// AcquirePortLock claims port for this process. Two daemons writing to the
// same UART would interleave frames, so the second one must refuse to start.
func AcquirePortLock(appID, port string) (PortLock, error) {
	return acquirePortLock(
		sanitizeLockComponent(appID, "app"),
		sanitizeLockComponent(portLockKey(port), "port"),
	)
}

// portLockKey reduces a port path to a stable name: "/dev/ttyUSB0" and
// "ttyUSB0" lock the same device, Windows names are case-insensitive.
func portLockKey(port string) string {
	port = strings.TrimSpace(port)
	port = strings.TrimPrefix(port, `\\.\`)
	if strings.HasPrefix(strings.ToUpper(port), "COM") {
		return strings.ToUpper(port)
	}
	return filepath.Base(filepath.Clean(port))
}

func sanitizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." || raw == string(filepath.Separator) {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "_-.")
	if out == "" {
		return fallback
	}
	return out
}
