package hid

// ReportFunc receives a report forwarded by WiredDriver. The payload is only
// valid for the duration of the call.
type ReportFunc func(kind Kind, payload []byte)

// WiredDriver is the passthrough driver used while the keyboard is on the
// cable. It forwards reports untouched and serves LED state set by the host.
type WiredDriver struct {
	forward ReportFunc
	leds    uint8
}

func NewWiredDriver(forward ReportFunc) *WiredDriver {
	return &WiredDriver{forward: forward}
}

func (d *WiredDriver) Name() string { return "wired" }

// SetLEDs records the LED bitmask reported by the wired host.
func (d *WiredDriver) SetLEDs(leds uint8) { d.leds = leds }

func (d *WiredDriver) LEDs() uint8 { return d.leds }

func (d *WiredDriver) SendKeyboard(r *KeyboardReport) { d.send(KindKeyboard, r[:]) }
func (d *WiredDriver) SendNKRO(r *NKROReport)         { d.send(KindNKRO, r[:]) }
func (d *WiredDriver) SendMouse(r *MouseReport)       { d.send(KindMouse, r[:]) }
func (d *WiredDriver) SendExtra(r *ExtraReport)       { d.send(KindExtra, r[:]) }

func (d *WiredDriver) send(kind Kind, payload []byte) {
	if d.forward == nil {
		return
	}
	d.forward(kind, payload)
}
