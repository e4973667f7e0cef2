package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yunzii-kb/smartble/internal/bus"
	"github.com/yunzii-kb/smartble/internal/events"
	"github.com/yunzii-kb/smartble/internal/link"
)

const (
	titleLinkUp      = "Keyboard connected"
	titleLinkDown    = "Keyboard disconnected"
	titlePairing     = "Keyboard pairing"
	titleModuleLost  = "Radio module lost"
	titleModuleFound = "Radio module ready"
)

// Service turns link and serial status events into notifications. Only
// transitions notify; repeated states are ignored.
type Service struct {
	bus    bus.MessageBus
	sender Sender
	logger *slog.Logger

	linkSet     bool
	lastLink    events.LinkStatus
	connSet     bool
	lastConn    events.ConnectionState
	wasPortOpen bool
}

func NewService(b bus.MessageBus, sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default().With("component", "notifications")
	}
	return &Service{bus: b, sender: sender, logger: logger}
}

// Start consumes events until ctx is done. The returned channel is closed
// when the service stops.
func (s *Service) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.bus == nil || s.sender == nil {
		close(done)
		return done
	}

	sub := s.bus.Subscribe(events.TopicLinkStatus, events.TopicConnStatus)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				go s.bus.Unsubscribe(sub)
				for range sub {
				}
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				switch msg := raw.(type) {
				case events.LinkStatus:
					s.handleLink(msg)
				case events.ConnStatus:
					s.handleConn(msg)
				}
			}
		}
	}()
	return done
}

func (s *Service) handleLink(st events.LinkStatus) {
	prev, hadPrev := s.lastLink, s.linkSet
	s.lastLink, s.linkSet = st, true

	switch {
	case st.Connected && (!hadPrev || !prev.Connected):
		s.send(Payload{Title: titleLinkUp, Content: fmt.Sprintf("Connected over %s", modeLabel(st.Mode))})
	case !st.Connected && hadPrev && prev.Connected:
		s.send(Payload{Title: titleLinkDown, Content: fmt.Sprintf("%s link lost", modeLabel(prev.Mode))})
	case st.Pairing && (!hadPrev || !prev.Pairing):
		s.send(Payload{Title: titlePairing, Content: fmt.Sprintf("Waiting for a host on %s", modeLabel(st.Mode))})
	}
}

func (s *Service) handleConn(st events.ConnStatus) {
	if st.State == "" || (s.connSet && s.lastConn == st.State) {
		return
	}
	s.lastConn, s.connSet = st.State, true

	switch st.State {
	case events.ConnectionStateConnected:
		s.wasPortOpen = true
		s.send(Payload{Title: titleModuleFound, Content: st.Target})
	case events.ConnectionStateReconnecting, events.ConnectionStateDisconnected:
		if !s.wasPortOpen {
			return
		}
		s.wasPortOpen = false
		content := st.Target
		if st.Err != "" {
			content += ": " + st.Err
		}
		s.send(Payload{Title: titleModuleLost, Content: content})
	}
}

func (s *Service) send(p Payload) {
	s.logger.Debug("notify", "title", p.Title)
	s.sender.Send(p)
}

func modeLabel(m link.Mode) string {
	switch {
	case m.IsBLE():
		return fmt.Sprintf("Bluetooth profile %d", int(m))
	case m == link.ModeDongle:
		return "2.4GHz dongle"
	default:
		return m.String()
	}
}
