package modeswitch

import (
	"fmt"
	"log/slog"

	"github.com/yunzii-kb/smartble/internal/link"
)

// Link is the part of the link controller the selector drives.
type Link interface {
	Start(mode link.Mode)
	Stop()
	Pair(mode link.Mode)
}

// Pins holds the raw levels of the mode slide switch. Both inputs are pulled
// up, so a selected position reads false.
type Pins struct {
	BLE bool
	G24 bool
}

// PinsFor returns the switch levels that select mode.
func PinsFor(mode link.Mode) Pins {
	switch {
	case mode.IsBLE():
		return Pins{BLE: false, G24: true}
	case mode == link.ModeDongle:
		return Pins{BLE: true, G24: false}
	default:
		return Pins{BLE: true, G24: true}
	}
}

// Key is a keyboard-level keycode handled by the selector.
type Key uint16

const (
	KeyUSB Key = iota + 1
	KeyBLE1
	KeyBLE2
	KeyBLE3
	Key24G
	KeyPair
)

func (k Key) String() string {
	switch k {
	case KeyUSB:
		return "usb"
	case KeyBLE1:
		return "ble1"
	case KeyBLE2:
		return "ble2"
	case KeyBLE3:
		return "ble3"
	case Key24G:
		return "24g"
	case KeyPair:
		return "pair"
	default:
		return fmt.Sprintf("key(%d)", uint16(k))
	}
}

func ParseKey(raw string) (Key, error) {
	for k := KeyUSB; k <= KeyPair; k++ {
		if k.String() == raw {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key: %q", raw)
}

// Selector turns switch positions and profile keys into link controller
// calls. Like the controller it is confined to the tick goroutine.
type Selector struct {
	logger  *slog.Logger
	link    Link
	current link.Mode
}

// New returns a selector in USB mode. The caller is expected to have stopped
// the link beforehand.
func New(logger *slog.Logger, l Link) *Selector {
	if logger == nil {
		logger = slog.Default().With("component", "modeswitch")
	}
	return &Selector{logger: logger, link: l, current: link.ModeUSB}
}

func (s *Selector) Current() link.Mode { return s.current }

// Desired maps pin levels to a mode. In the BLE position the last used BLE
// profile is kept.
func (s *Selector) Desired(p Pins) link.Mode {
	switch {
	case !p.BLE:
		if s.current.IsBLE() {
			return s.current
		}
		return link.ModeBLE1
	case !p.G24:
		return link.ModeDongle
	default:
		return link.ModeUSB
	}
}

// Poll applies the switch position and reports whether the mode changed.
func (s *Selector) Poll(p Pins) bool {
	next := s.Desired(p)
	if next == s.current {
		return false
	}

	s.logger.Info("mode change", "from", s.current, "to", next)
	if next == link.ModeUSB {
		s.link.Stop()
	} else {
		s.link.Start(next)
	}
	s.current = next
	return true
}

// HandleKey processes a pressed keycode and reports whether it was consumed.
func (s *Selector) HandleKey(k Key) bool {
	switch k {
	case KeyPair:
		if s.current.IsWireless() {
			s.link.Pair(s.current)
		} else {
			s.logger.Debug("pair ignored in usb mode")
		}
		return true
	case KeyBLE1, KeyBLE2, KeyBLE3:
		target := link.ModeBLE1 + link.Mode(k-KeyBLE1)
		if s.current.IsBLE() && s.current != target {
			s.logger.Info("profile change", "from", s.current, "to", target)
			s.link.Start(target)
			s.current = target
		}
		return true
	case KeyUSB, Key24G:
		return true
	default:
		return false
	}
}

// Select moves the switch to mode and, for BLE profiles, presses the profile
// key. It is the software equivalent of a user selecting mode on the board.
func (s *Selector) Select(mode link.Mode) {
	s.Poll(PinsFor(mode))
	if mode.IsBLE() {
		s.HandleKey(KeyBLE1 + Key(mode-link.ModeBLE1))
	}
}
