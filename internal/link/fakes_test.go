package link

import (
	"bytes"
	"io"
	"time"

	"github.com/yunzii-kb/smartble/internal/hid"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type write struct {
	at   time.Time
	data []byte
}

type fakePort struct {
	clock  *fakeClock
	rx     []byte
	writes []write
	err    error
}

func (p *fakePort) Available() int { return len(p.rx) }

func (p *fakePort) ReadByte() (byte, error) {
	if len(p.rx) == 0 {
		return 0, io.EOF
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.writes = append(p.writes, write{at: p.clock.Now(), data: append([]byte(nil), b...)})
	return len(b), nil
}

func (p *fakePort) feed(b ...byte) { p.rx = append(p.rx, b...) }

func (p *fakePort) reset() { p.writes = nil }

// reportFrames returns written frames, skipping wake bursts.
func (p *fakePort) reportFrames() []write {
	var out []write
	for _, w := range p.writes {
		if len(w.data) > 0 && w.data[0] == 0x55 {
			out = append(out, w)
		}
	}
	return out
}

func isWakeBurst(b []byte, n int) bool {
	return len(b) == n && bytes.Count(b, []byte{0}) == n
}

type linkEvents struct {
	states []State
	leds   []uint8
	in     [][]byte
	out    [][]byte
}

func (e *linkEvents) LinkChanged(s State) { e.states = append(e.states, s) }
func (e *linkEvents) LEDsChanged(l uint8) { e.leds = append(e.leds, l) }
func (e *linkEvents) FrameIn(raw []byte)  { e.in = append(e.in, raw) }
func (e *linkEvents) FrameOut(raw []byte) { e.out = append(e.out, raw) }

type harness struct {
	clock  *fakeClock
	port   *fakePort
	wired  *hid.WiredDriver
	wiredN int
	host   *hid.Host
	events *linkEvents
	c      *Controller
}

func newHarness(cfg Config) *harness {
	h := &harness{clock: newFakeClock(), events: &linkEvents{}}
	h.port = &fakePort{clock: h.clock}
	h.wired = hid.NewWiredDriver(func(hid.Kind, []byte) { h.wiredN++ })
	h.host = hid.NewHost(nil, h.wired)
	h.c = NewController(nil, h.port, h.clock, h.host, cfg, h.events)
	return h
}

// connect starts mode and delivers a connected status for it.
func (h *harness) connect(mode Mode) {
	h.c.Start(mode)
	h.port.feed(0x55, 0x03, 0x00, byte(mode), 0x00)
	h.c.Tick()
	h.port.reset()
}

func (h *harness) tickFor(d, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		h.clock.Advance(step)
		h.c.Tick()
	}
}
