package link

import (
	"log/slog"
	"time"

	"github.com/yunzii-kb/smartble/internal/frame"
	"github.com/yunzii-kb/smartble/internal/hid"
	"github.com/yunzii-kb/smartble/internal/report"
	"github.com/yunzii-kb/smartble/internal/transport"
)

// State is a snapshot of the wireless link.
type State struct {
	Mode                 Mode
	Connected            bool
	Pairing              bool
	LEDs                 uint8
	PairingDeadline      time.Time
	ProfileFlashDeadline time.Time
}

// Stats aggregates counters of the link core.
type Stats struct {
	Parser         frame.Stats
	ReportsDropped uint64
	FramesSent     uint64
	WakeBursts     uint64
	WriteErrors    uint64
	StaleStatus    uint64
}

// Controller owns one radio link: the incoming frame parser, the outgoing
// report queue and scheduler, and the link state. It is not safe for
// concurrent use; every method must be called from the goroutine that runs Tick.
type Controller struct {
	logger   *slog.Logger
	cfg      Config
	port     transport.Port
	clock    Clock
	observer Observer

	host     *hid.Host
	wireless *wirelessDriver
	previous hid.Driver

	parser *frame.Parser
	queue  *report.Queue
	sched  *Scheduler

	state       State
	staleStatus uint64
}

func NewController(logger *slog.Logger, port transport.Port, clock Clock, host *hid.Host, cfg Config, observer Observer) *Controller {
	cfg.fillDefaults()
	if logger == nil {
		logger = slog.Default().With("component", "link")
	}
	if clock == nil {
		clock = SystemClock()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if host == nil {
		host = hid.NewHost(logger, nil)
	}

	c := &Controller{
		logger:   logger,
		cfg:      cfg,
		port:     port,
		clock:    clock,
		observer: observer,
		host:     host,
		queue:    report.NewQueue(cfg.QueueCapacity),
	}
	c.wireless = &wirelessDriver{c: c}
	c.parser = frame.NewParser(frame.Options{
		Lenient:  cfg.LenientValidation,
		OnReject: c.onReject,
	})
	c.sched = NewScheduler(logger.With("part", "scheduler"), port, clock, c.queue, cfg, observer)

	return c
}

// Start makes mode the active wireless profile: it installs the wireless
// driver, drops pending reports, wakes the module and sends the start-profile
// command twice. Starting the profile that is already running is a no-op.
func (c *Controller) Start(mode Mode) {
	mode = c.wirelessMode(mode)
	if c.installed() && c.state.Mode == mode {
		c.logger.Debug("start ignored, profile already active", "mode", mode)
		return
	}

	c.logger.Info("starting wireless profile", "mode", mode, "from", c.state.Mode)
	c.install()
	c.queue.Reset()
	c.state.Connected = false
	c.state.Pairing = false
	c.state.PairingDeadline = time.Time{}
	c.setMode(mode)
	c.sched.Touch()

	c.sched.WakeBurst(c.cfg.StartSettle)
	cmd := frame.StartProfile(byte(mode), c.cfg.DeviceName)
	c.sched.WriteFrame(cmd)
	c.clock.Sleep(c.cfg.RepeatGap)
	// the module tends to miss the first frame after waking
	c.sched.WriteFrame(cmd)

	c.state.ProfileFlashDeadline = c.clock.Now().Add(c.cfg.ProfileFlash)
	c.observer.LinkChanged(c.state)
}

// Pair puts the module into pairing mode on mode. Pairing stays flagged until
// a connectivity status arrives or the pairing window ends.
func (c *Controller) Pair(mode Mode) {
	mode = c.wirelessMode(mode)

	c.logger.Info("entering pairing", "mode", mode)
	c.install()
	c.queue.Reset()
	c.state.Connected = false
	c.setMode(mode)

	c.sched.WakeBurst(c.cfg.StartSettle)
	cmd := frame.Pair(byte(mode))
	for i := 0; i < 2; i++ {
		c.sched.WriteFrame(cmd)
		c.clock.Sleep(c.cfg.RepeatGap)
	}

	c.state.Pairing = true
	c.state.PairingDeadline = c.clock.Now().Add(c.cfg.PairingWindow)
	c.observer.LinkChanged(c.state)
}

// Stop disconnects the module and hands reports back to the driver that was
// active before the link started.
func (c *Controller) Stop() {
	c.logger.Info("stopping wireless", "mode", c.state.Mode)
	c.state.Connected = false

	c.sched.WakeBurst(c.cfg.StopSettle)
	c.uninstall()
	c.clock.Sleep(c.cfg.StopRestore)
	c.sched.WriteFrame(frame.Stop())

	c.queue.Reset()
	c.state.Pairing = false
	c.state.PairingDeadline = time.Time{}
	c.state.ProfileFlashDeadline = time.Time{}
	c.setMode(ModeUSB)
	c.observer.LinkChanged(c.state)
}

// SendBattery reports the battery level to the module while connected.
func (c *Controller) SendBattery(level uint8) {
	if !c.state.Connected {
		return
	}
	c.sched.WriteFrame(frame.Battery(level))
}

// Tick drains received bytes, sends at most one queued report and expires
// timed states. It is meant to be called on every main loop iteration.
func (c *Controller) Tick() {
	for i := 0; i < c.cfg.MaxRxPerTick && c.port.Available() > 0; i++ {
		b, err := c.port.ReadByte()
		if err != nil {
			break
		}
		if f, ok := c.parser.Feed(b); ok {
			c.handleFrame(f)
		}
	}

	c.sched.Tick()
	c.expire(c.clock.Now())
}

func (c *Controller) IsConnected() bool { return c.state.Connected }

func (c *Controller) Mode() Mode { return c.state.Mode }

func (c *Controller) Pairing() bool { return c.state.Pairing }

func (c *Controller) LEDs() uint8 { return c.state.LEDs }

func (c *Controller) State() State { return c.state }

// ProfileFlashing reports whether the profile indication window after a
// start is still open.
func (c *Controller) ProfileFlashing() bool {
	return !c.state.ProfileFlashDeadline.IsZero()
}

// Driver is the wireless report sink installed into the host while the link runs.
func (c *Controller) Driver() hid.Driver { return c.wireless }

// Pending is the number of queued reports.
func (c *Controller) Pending() int { return c.queue.Len() }

func (c *Controller) Stats() Stats {
	return Stats{
		Parser:         c.parser.Stats(),
		ReportsDropped: c.queue.Dropped(),
		FramesSent:     c.sched.framesSent,
		WakeBursts:     c.sched.wakeBursts,
		WriteErrors:    c.sched.writeErrors,
		StaleStatus:    c.staleStatus,
	}
}

func (c *Controller) handleFrame(f frame.Frame) {
	c.observer.FrameIn(f.Raw)

	st, ok := frame.DecodeStatus(f)
	if !ok {
		return
	}
	if !c.state.Mode.IsWireless() || Mode(st.WorkMode) != c.state.Mode {
		c.staleStatus++
		c.logger.Debug("status for inactive profile ignored", "workmode", st.WorkMode, "active", c.state.Mode)
		return
	}

	switch st.Command {
	case frame.CmdConnectivity:
		connected := st.Connected()
		if connected && c.state.Pairing {
			c.state.Pairing = false
			c.state.PairingDeadline = time.Time{}
		}
		if connected != c.state.Connected {
			c.state.Connected = connected
			c.logger.Info("wireless link changed", "mode", c.state.Mode, "connected", connected)
			c.observer.LinkChanged(c.state)
		}
	case frame.CmdLED:
		if st.Data != c.state.LEDs {
			c.state.LEDs = st.Data
			c.observer.LEDsChanged(st.Data)
		}
	}
}

func (c *Controller) expire(now time.Time) {
	changed := false
	if c.state.Pairing && now.After(c.state.PairingDeadline) {
		c.state.Pairing = false
		c.state.PairingDeadline = time.Time{}
		c.logger.Info("pairing window ended", "mode", c.state.Mode)
		changed = true
	}
	if !c.state.ProfileFlashDeadline.IsZero() && now.After(c.state.ProfileFlashDeadline) {
		c.state.ProfileFlashDeadline = time.Time{}
		changed = true
	}
	if changed {
		c.observer.LinkChanged(c.state)
	}
}

func (c *Controller) onReject(r frame.Reject) {
	c.logger.Debug("frame rejected", "reason", r.Reason, "byte", r.Byte, "accepted", r.Accepted)
}

func (c *Controller) wirelessMode(mode Mode) Mode {
	if mode.IsWireless() {
		return mode
	}
	c.logger.Warn("invalid wireless mode, using ble1", "mode", mode)
	return ModeBLE1
}

func (c *Controller) setMode(m Mode) {
	c.state.Mode = m
	c.sched.SetMode(m)
}

func (c *Controller) installed() bool {
	return c.host.Driver() == hid.Driver(c.wireless)
}

func (c *Controller) install() {
	if c.installed() {
		return
	}
	c.previous = c.host.Driver()
	c.host.SetDriver(c.wireless)
}

func (c *Controller) uninstall() {
	if !c.installed() {
		return
	}
	c.host.SetDriver(c.previous)
	c.previous = nil
}

func (c *Controller) enqueue(kind hid.Kind, payload []byte) {
	if !c.state.Connected {
		return
	}
	if !c.queue.Push(kind, payload) {
		c.logger.Debug("report queue full, report dropped", "kind", kind, "depth", c.queue.Len())
	}
}
