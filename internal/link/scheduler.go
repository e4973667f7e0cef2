package link

import (
	"log/slog"
	"time"

	"github.com/yunzii-kb/smartble/internal/frame"
	"github.com/yunzii-kb/smartble/internal/report"
	"github.com/yunzii-kb/smartble/internal/transport"
)

// Scheduler owns every write to the module. Reports leave the queue at most
// one per interval; the only blocking it does is the wake burst before the
// first frame after a long silence.
type Scheduler struct {
	logger   *slog.Logger
	port     transport.Port
	clock    Clock
	queue    *report.Queue
	observer Observer

	bleInterval    time.Duration
	dongleInterval time.Duration
	wakeIdle       time.Duration
	wakeBytes      int
	wakeSettle     time.Duration

	mode         Mode
	lastSend     time.Time
	lastActivity time.Time

	framesSent  uint64
	wakeBursts  uint64
	writeErrors uint64
}

func NewScheduler(logger *slog.Logger, port transport.Port, clock Clock, queue *report.Queue, cfg Config, observer Observer) *Scheduler {
	cfg.fillDefaults()
	if logger == nil {
		logger = slog.Default().With("component", "link.scheduler")
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Scheduler{
		logger:         logger,
		port:           port,
		clock:          clock,
		queue:          queue,
		observer:       observer,
		bleInterval:    cfg.BLEInterval,
		dongleInterval: cfg.DongleInterval,
		wakeIdle:       cfg.WakeIdle,
		wakeBytes:      cfg.WakeBytes,
		wakeSettle:     cfg.WakeSettle,
	}
}

// SetMode selects the pacing interval for the active profile.
func (s *Scheduler) SetMode(m Mode) { s.mode = m }

// Interval is the minimum spacing between two frames for the active profile.
func (s *Scheduler) Interval() time.Duration {
	if s.mode == ModeDongle {
		return s.dongleInterval
	}
	return s.bleInterval
}

// Tick sends the head of the queue if the interval has elapsed. It reports
// whether a frame was written.
func (s *Scheduler) Tick() bool {
	if s.queue.Empty() {
		return false
	}

	now := s.clock.Now()
	if now.Sub(s.lastSend) < s.Interval() {
		return false
	}
	if now.Sub(s.lastActivity) > s.wakeIdle {
		s.WakeBurst(s.wakeSettle)
	}

	e, _ := s.queue.Pop()
	s.WriteFrame(frame.EncodeReport(e.Kind, e.Payload()))

	return true
}

// WakeBurst writes the zero preamble that rouses a sleeping module and then
// blocks for settle.
func (s *Scheduler) WakeBurst(settle time.Duration) {
	s.write(frame.WakeBurst(s.wakeBytes))
	s.wakeBursts++
	if settle > 0 {
		s.clock.Sleep(settle)
	}
}

// WriteFrame writes one complete frame and restarts the pacing interval.
func (s *Scheduler) WriteFrame(raw []byte) {
	s.write(raw)
	s.lastSend = s.clock.Now()
	s.framesSent++
	s.observer.FrameOut(raw)
}

// Touch marks the module as recently active without writing.
func (s *Scheduler) Touch() {
	s.lastActivity = s.clock.Now()
}

func (s *Scheduler) LastActivity() time.Time { return s.lastActivity }

func (s *Scheduler) LastSend() time.Time { return s.lastSend }

func (s *Scheduler) write(raw []byte) {
	if _, err := s.port.Write(raw); err != nil {
		s.writeErrors++
		s.logger.Warn("serial write failed", "len", len(raw), "error", err)
	}
	s.lastActivity = s.clock.Now()
}
