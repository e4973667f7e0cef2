package hid

import "log/slog"

// Host routes reports from the input subsystem to the active driver.
type Host struct {
	logger *slog.Logger
	driver Driver
}

func NewHost(logger *slog.Logger, initial Driver) *Host {
	if logger == nil {
		logger = slog.Default().With("component", "hid.host")
	}
	return &Host{logger: logger, driver: initial}
}

func (h *Host) Driver() Driver { return h.driver }

// SetDriver releases every key and button through the outgoing driver before
// switching, so the old path is not left with stuck keys.
func (h *Host) SetDriver(d Driver) {
	if h.driver == d {
		return
	}
	h.clear()
	h.driver = d
	h.logger.Debug("host driver switched", "driver", driverName(d))
}

func (h *Host) LEDs() uint8 {
	if h.driver == nil {
		return 0
	}
	return h.driver.LEDs()
}

func (h *Host) SendKeyboard(r *KeyboardReport) {
	if h.driver != nil {
		h.driver.SendKeyboard(r)
	}
}

func (h *Host) SendNKRO(r *NKROReport) {
	if h.driver != nil {
		h.driver.SendNKRO(r)
	}
}

func (h *Host) SendMouse(r *MouseReport) {
	if h.driver != nil {
		h.driver.SendMouse(r)
	}
}

func (h *Host) SendExtra(r *ExtraReport) {
	if h.driver != nil {
		h.driver.SendExtra(r)
	}
}

func (h *Host) clear() {
	if h.driver == nil {
		return
	}
	h.driver.SendKeyboard(&KeyboardReport{})
	h.driver.SendMouse(&MouseReport{})
	h.driver.SendExtra(&ExtraReport{})
}

type named interface {
	Name() string
}

func driverName(d Driver) string {
	if d == nil {
		return "<nil>"
	}
	if n, ok := d.(named); ok {
		return n.Name()
	}
	return "unnamed"
}
