package frame

import "github.com/yunzii-kb/smartble/internal/hid"

const (
	// StartProfileSize is the fixed size of a start-profile command on the wire.
	StartProfileSize = 22
	startProfileLen  = 20

	keyboardLen       = 0x09
	keyboardSubHeader = 0x01

	cmdBattery = 0x09
)

// EncodeReport builds the frame for an outgoing HID report. Keyboard reports use
// the module's fixed 09 01 sub-header; every other kind carries its raw length.
func EncodeReport(kind hid.Kind, payload []byte) []byte {
	if kind == hid.KindKeyboard {
		out := make([]byte, 0, 3+len(payload))
		out = append(out, Sync, keyboardLen, keyboardSubHeader)
		return append(out, payload...)
	}

	out := make([]byte, 0, 2+len(payload))
	// #nosec G115 -- report payloads are bounded by the queue entry size.
	out = append(out, Sync, byte(len(payload)))
	return append(out, payload...)
}

// StartProfile builds the 22-byte command that makes the module advertise
// mode under "<name>-<mode>". Names too long for the frame are truncated.
func StartProfile(mode byte, name string) []byte {
	out := make([]byte, StartProfileSize)
	out[0] = Sync
	out[1] = startProfileLen
	out[2] = 0
	out[3] = mode

	// room for '-', digit and terminating zero
	maxName := StartProfileSize - 4 - 3
	if len(name) > maxName {
		name = name[:maxName]
	}
	n := copy(out[4:], name)
	out[4+n] = '-'
	out[4+n+1] = '0' + mode
	out[4+n+2] = 0

	return out
}

// Pair builds the enter-pairing command for mode.
func Pair(mode byte) []byte {
	return []byte{Sync, 0x03, 0x00, mode, 0x01}
}

// Stop builds the disconnect command.
func Stop() []byte {
	return []byte{Sync, 0x02, 0x00, 0x00}
}

// Battery builds the battery level report.
func Battery(level byte) []byte {
	return []byte{Sync, 0x02, cmdBattery, level}
}

// WakeBurst returns n zero bytes used to rouse a sleeping module.
func WakeBurst(n int) []byte {
	if n < 0 {
		n = 0
	}
	return make([]byte, n)
}
