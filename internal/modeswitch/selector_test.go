package modeswitch

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/yunzii-kb/smartble/internal/link"
)

type recordingLink struct {
	calls []string
}

func (l *recordingLink) Start(m link.Mode) { l.calls = append(l.calls, fmt.Sprintf("start %s", m)) }
func (l *recordingLink) Stop()             { l.calls = append(l.calls, "stop") }
func (l *recordingLink) Pair(m link.Mode)  { l.calls = append(l.calls, fmt.Sprintf("pair %s", m)) }

func TestPollTransitions(t *testing.T) {
	l := &recordingLink{}
	s := New(nil, l)

	steps := []struct {
		pins    Pins
		changed bool
		mode    link.Mode
	}{
		{pins: Pins{BLE: true, G24: true}, changed: false, mode: link.ModeUSB},
		{pins: Pins{BLE: false, G24: true}, changed: true, mode: link.ModeBLE1},
		{pins: Pins{BLE: false, G24: true}, changed: false, mode: link.ModeBLE1},
		{pins: Pins{BLE: true, G24: false}, changed: true, mode: link.ModeDongle},
		{pins: Pins{BLE: false, G24: false}, changed: true, mode: link.ModeBLE1},
		{pins: Pins{BLE: true, G24: true}, changed: true, mode: link.ModeUSB},
	}
	for i, step := range steps {
		if got := s.Poll(step.pins); got != step.changed {
			t.Fatalf("step %d: changed=%v want %v", i, got, step.changed)
		}
		if s.Current() != step.mode {
			t.Fatalf("step %d: mode=%s want %s", i, s.Current(), step.mode)
		}
	}

	want := []string{"start ble1", "start 2.4g", "start ble1", "stop"}
	if !reflect.DeepEqual(l.calls, want) {
		t.Fatalf("unexpected calls: %v", l.calls)
	}
}

func TestBLEPositionKeepsProfile(t *testing.T) {
	l := &recordingLink{}
	s := New(nil, l)
	s.Poll(PinsFor(link.ModeBLE1))
	s.HandleKey(KeyBLE3)

	if s.Poll(PinsFor(link.ModeBLE1)) {
		t.Fatalf("ble position must keep the selected profile")
	}
	if s.Current() != link.ModeBLE3 {
		t.Fatalf("expected ble3, got %s", s.Current())
	}
}

func TestProfileKeys(t *testing.T) {
	tests := []struct {
		name  string
		start link.Mode
		key   Key
		want  []string
		mode  link.Mode
	}{
		{name: "switch profile", start: link.ModeBLE1, key: KeyBLE2, want: []string{"start ble2"}, mode: link.ModeBLE2},
		{name: "same profile", start: link.ModeBLE2, key: KeyBLE2, want: nil, mode: link.ModeBLE2},
		{name: "ignored on dongle", start: link.ModeDongle, key: KeyBLE3, want: nil, mode: link.ModeDongle},
		{name: "ignored on usb", start: link.ModeUSB, key: KeyBLE1, want: nil, mode: link.ModeUSB},
		{name: "pair wireless", start: link.ModeDongle, key: KeyPair, want: []string{"pair 2.4g"}, mode: link.ModeDongle},
		{name: "pair usb", start: link.ModeUSB, key: KeyPair, want: nil, mode: link.ModeUSB},
		{name: "24g key consumed", start: link.ModeBLE1, key: Key24G, want: nil, mode: link.ModeBLE1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingLink{}
			s := New(nil, l)
			s.current = tt.start

			if !s.HandleKey(tt.key) {
				t.Fatalf("expected %s to be consumed", tt.key)
			}
			if !reflect.DeepEqual(l.calls, tt.want) {
				t.Fatalf("calls=%v want %v", l.calls, tt.want)
			}
			if s.Current() != tt.mode {
				t.Fatalf("mode=%s want %s", s.Current(), tt.mode)
			}
		})
	}
}

func TestUnknownKeyNotConsumed(t *testing.T) {
	s := New(nil, &recordingLink{})
	if s.HandleKey(Key(99)) {
		t.Fatalf("unknown key must pass through")
	}
}

func TestSelect(t *testing.T) {
	l := &recordingLink{}
	s := New(nil, l)

	s.Select(link.ModeBLE3)
	s.Select(link.ModeDongle)
	s.Select(link.ModeUSB)

	want := []string{"start ble1", "start ble3", "start 2.4g", "stop"}
	if !reflect.DeepEqual(l.calls, want) {
		t.Fatalf("unexpected calls: %v", l.calls)
	}
}

func TestParseKey(t *testing.T) {
	for k := KeyUSB; k <= KeyPair; k++ {
		got, err := ParseKey(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKey(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKey("ble4"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
