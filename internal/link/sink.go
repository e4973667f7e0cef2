package link

import "github.com/yunzii-kb/smartble/internal/hid"

// wirelessDriver queues reports for the radio module. Reports submitted while
// the link is down are discarded.
type wirelessDriver struct {
	c *Controller
}

func (d *wirelessDriver) Name() string { return "wireless" }

func (d *wirelessDriver) LEDs() uint8 { return d.c.state.LEDs }

func (d *wirelessDriver) SendKeyboard(r *hid.KeyboardReport) {
	d.c.enqueue(hid.KindKeyboard, r[:])
}

func (d *wirelessDriver) SendNKRO(r *hid.NKROReport) {
	d.c.enqueue(hid.KindNKRO, r[:])
}

func (d *wirelessDriver) SendMouse(r *hid.MouseReport) {
	d.c.enqueue(hid.KindMouse, r[:])
}

func (d *wirelessDriver) SendExtra(r *hid.ExtraReport) {
	d.c.enqueue(hid.KindExtra, r[:])
}
