package radio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yunzii-kb/smartble/internal/bus"
	"github.com/yunzii-kb/smartble/internal/events"
	"github.com/yunzii-kb/smartble/internal/link"
	"github.com/yunzii-kb/smartble/internal/modeswitch"
	"github.com/yunzii-kb/smartble/internal/transport"
)

const (
	DefaultTickInterval   = time.Millisecond
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 15 * time.Second
	outboxSize            = 32
)

var errPortClosed = errors.New("serial port closed")

// Command runs on the tick goroutine with exclusive access to the link.
type Command func(ctrl *link.Controller, sel *modeswitch.Selector)

type request struct {
	cmd  Command
	done chan struct{}
}

type Options struct {
	TickInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Service owns the UART connection to the radio module. It reconnects with
// backoff and, while connected, drives the link controller from a single
// goroutine. Everything else reaches the controller through Do.
type Service struct {
	logger   *slog.Logger
	conn     transport.Conn
	bus      bus.MessageBus
	ctrl     *link.Controller
	selector *modeswitch.Selector
	outbox   chan request
	opts     Options

	// stopped is closed once the connector has exited.
	stopped chan struct{}
}

func NewService(logger *slog.Logger, b bus.MessageBus, conn transport.Conn, ctrl *link.Controller, opts Options) *Service {
	if logger == nil {
		logger = slog.Default().With("component", "radio")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = max(defaultMaxBackoff, opts.InitialBackoff)
	}
	return &Service{
		logger:   logger,
		conn:     conn,
		bus:      b,
		ctrl:     ctrl,
		selector: modeswitch.New(logger.With("part", "modeswitch"), ctrl),
		outbox:   make(chan request, outboxSize),
		opts:     opts,
		stopped:  make(chan struct{}),
	}
}

// Start runs the connector until ctx is cancelled. The returned channel is
// closed once the port has been released.
func (s *Service) Start(ctx context.Context) <-chan struct{} {
	go func() {
		s.runConnector(ctx)
		close(s.stopped)
		s.discardPending()
	}()
	return s.stopped
}

// Do queues cmd for the tick goroutine. The returned channel is closed after
// cmd ran, or without running it once the service has stopped. Commands wait
// while the port is down.
func (s *Service) Do(cmd Command) <-chan struct{} {
	done := make(chan struct{})
	select {
	case <-s.stopped:
		close(done)
		return done
	default:
	}

	select {
	case s.outbox <- request{cmd: cmd, done: done}:
		// the connector may have exited while we were sending
		select {
		case <-s.stopped:
			s.discardPending()
		default:
		}
	case <-s.stopped:
		close(done)
	}
	return done
}

// discardPending releases queued commands without running them.
func (s *Service) discardPending() {
	for {
		select {
		case req := <-s.outbox:
			close(req.done)
		default:
			return
		}
	}
}

// SelectMode moves the mode switch to mode.
func (s *Service) SelectMode(mode link.Mode) <-chan struct{} {
	return s.Do(func(_ *link.Controller, sel *modeswitch.Selector) {
		sel.Select(mode)
	})
}

func (s *Service) SetPins(p modeswitch.Pins) <-chan struct{} {
	return s.Do(func(_ *link.Controller, sel *modeswitch.Selector) {
		sel.Poll(p)
	})
}

func (s *Service) PressKey(k modeswitch.Key) <-chan struct{} {
	return s.Do(func(_ *link.Controller, sel *modeswitch.Selector) {
		sel.HandleKey(k)
	})
}

func (s *Service) SendBattery(level uint8) <-chan struct{} {
	return s.Do(func(ctrl *link.Controller, _ *modeswitch.Selector) {
		ctrl.SendBattery(level)
	})
}

func (s *Service) runConnector(ctx context.Context) {
	backoff := s.opts.InitialBackoff
	for {
		if err := ctx.Err(); err != nil {
			s.publishConnStatus(events.ConnectionStateDisconnected, nil)
			return
		}

		s.publishConnStatus(events.ConnectionStateConnecting, nil)
		if err := s.conn.Connect(ctx); err != nil {
			s.publishConnStatus(events.ConnectionStateReconnecting, err)
			s.logger.Error("serial connect failed", "target", s.conn.Target(), "error", err)
			if !sleepWithContext(ctx, backoff) {
				s.publishConnStatus(events.ConnectionStateDisconnected, nil)
				return
			}
			backoff = min(backoff*2, s.opts.MaxBackoff)
			continue
		}

		backoff = s.opts.InitialBackoff
		s.publishConnStatus(events.ConnectionStateConnected, nil)
		err := s.runLink(ctx)
		_ = s.conn.Close()

		if ctx.Err() != nil {
			s.publishConnStatus(events.ConnectionStateDisconnected, nil)
			return
		}
		s.logger.Warn("serial link lost", "target", s.conn.Target(), "error", err)
		s.publishConnStatus(events.ConnectionStateReconnecting, err)
		if !sleepWithContext(ctx, backoff) {
			s.publishConnStatus(events.ConnectionStateDisconnected, nil)
			return
		}
		backoff = min(backoff*2, s.opts.MaxBackoff)
	}
}

// runLink resets the module to a known state, restores the selected mode and
// ticks the controller until the port fails or ctx ends.
func (s *Service) runLink(ctx context.Context) error {
	s.ctrl.Stop()
	if mode := s.selector.Current(); mode.IsWireless() {
		s.ctrl.Start(mode)
	}

	done := s.conn.Done()
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.ctrl.Mode().IsWireless() {
				s.ctrl.Stop()
			}
			return ctx.Err()
		case <-done:
			if err := s.conn.Err(); err != nil {
				return err
			}
			return errPortClosed
		case req := <-s.outbox:
			req.cmd(s.ctrl, s.selector)
			close(req.done)
		case <-ticker.C:
			s.ctrl.Tick()
		}
	}
}

func (s *Service) publishConnStatus(state events.ConnectionState, err error) {
	status := events.ConnStatus{
		State:         state,
		TransportName: s.conn.Name(),
		Target:        s.conn.Target(),
		Timestamp:     time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
	}
	s.bus.Publish(events.TopicConnStatus, status)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
