package hid

import "fmt"

// Report sizes as the radio module expects them on the wire.
const (
	KeyboardReportSize = 8
	MouseReportSize    = 5
	ExtraReportSize    = 3
	NKROReportSize     = 0x12
)

// KeyboardReport is a boot-protocol keyboard report: modifiers, reserved, six keys.
type KeyboardReport [KeyboardReportSize]byte

// MouseReport carries buttons, x, y, vertical and horizontal wheel.
type MouseReport [MouseReportSize]byte

// ExtraReport carries a report id and a 16-bit consumer or system usage.
type ExtraReport [ExtraReportSize]byte

// NKROReport is the module's n-key-rollover bitmap report.
type NKROReport [NKROReportSize]byte

// Driver receives HID reports produced by the input subsystem. Implementations
// must not block.
type Driver interface {
	LEDs() uint8
	SendKeyboard(r *KeyboardReport)
	SendNKRO(r *NKROReport)
	SendMouse(r *MouseReport)
	SendExtra(r *ExtraReport)
}

// Kind tags an outgoing report.
type Kind uint8

const (
	KindKeyboard Kind = iota + 1
	KindMouse
	KindExtra
	KindNKRO
)

func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindMouse:
		return "mouse"
	case KindExtra:
		return "extra"
	case KindNKRO:
		return "nkro"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Size returns the fixed payload size of reports of this kind, or 0 for unknown kinds.
func (k Kind) Size() int {
	switch k {
	case KindKeyboard:
		return KeyboardReportSize
	case KindMouse:
		return MouseReportSize
	case KindExtra:
		return ExtraReportSize
	case KindNKRO:
		return NKROReportSize
	default:
		return 0
	}
}
