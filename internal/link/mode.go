package link

import "fmt"

// Mode is the active output of the keyboard. Values match the work mode byte
// the radio module uses in its frames.
type Mode uint8

const (
	ModeUSB Mode = iota
	ModeBLE1
	ModeBLE2
	ModeBLE3
	ModeDongle
)

func (m Mode) String() string {
	switch m {
	case ModeUSB:
		return "usb"
	case ModeBLE1:
		return "ble1"
	case ModeBLE2:
		return "ble2"
	case ModeBLE3:
		return "ble3"
	case ModeDongle:
		return "2.4g"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func (m Mode) IsWireless() bool { return m >= ModeBLE1 && m <= ModeDongle }

func (m Mode) IsBLE() bool { return m >= ModeBLE1 && m <= ModeBLE3 }

// ParseMode accepts the numeric form (0-4) and the names returned by String.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case "0", "usb":
		return ModeUSB, nil
	case "1", "ble1":
		return ModeBLE1, nil
	case "2", "ble2":
		return ModeBLE2, nil
	case "3", "ble3":
		return ModeBLE3, nil
	case "4", "2.4g", "dongle":
		return ModeDongle, nil
	default:
		return ModeUSB, fmt.Errorf("unknown mode: %q", raw)
	}
}
