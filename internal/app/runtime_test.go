package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/yunzii-kb/smartble/internal/capture"
	"github.com/yunzii-kb/smartble/internal/config"
	"github.com/yunzii-kb/smartble/internal/events"
	"github.com/yunzii-kb/smartble/internal/link"
	"github.com/yunzii-kb/smartble/internal/notifications"
	"github.com/yunzii-kb/smartble/internal/platform"
	"github.com/yunzii-kb/smartble/internal/radio"
)

type benchConn struct {
	mu     sync.Mutex
	rx     []byte
	writes [][]byte
	done   chan struct{}
}

func (c *benchConn) Name() string   { return "serial" }
func (c *benchConn) Target() string { return "bench0@460800" }

func (c *benchConn) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = make(chan struct{})
	return nil
}

func (c *benchConn) Close() error { return nil }

func (c *benchConn) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *benchConn) Err() error { return nil }

func (c *benchConn) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rx)
}

func (c *benchConn) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rx) == 0 {
		return 0, io.EOF
	}
	b := c.rx[0]
	c.rx = c.rx[1:]
	return b, nil
}

func (c *benchConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *benchConn) feed(b ...byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rx = append(c.rx, b...)
}

func (c *benchConn) count(frame []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.writes {
		if bytes.Equal(w, frame) {
			n++
		}
	}
	return n
}

type payloadLog struct {
	mu       sync.Mutex
	payloads []notifications.Payload
}

func (l *payloadLog) Send(p notifications.Payload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payloads = append(l.payloads, p)
}

func (l *payloadLog) titles() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.payloads))
	for _, p := range l.payloads {
		out = append(out, p.Title)
	}
	return out
}

func isolateUserDirs(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
}

func writeConfig(t *testing.T, mutate func(*config.AppConfig)) string {
	t.Helper()
	cfg := config.Default()
	cfg.Serial.Port = "/dev/ttyBENCH0"
	mutate(&cfg)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestInitializeRequiresPort(t *testing.T) {
	isolateUserDirs(t)

	_, err := Initialize(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatalf("expected error without a serial port")
	}
}

func TestInitializePortOverride(t *testing.T) {
	isolateUserDirs(t)

	rt, err := Initialize(context.Background(), Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.json"),
		Port:       "/dev/ttyBENCH1",
		Baud:       115200,
		Conn:       &benchConn{},
		Notifier:   &payloadLog{},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer func() { _ = rt.Close() }()

	if rt.Config.Serial.Port != "/dev/ttyBENCH1" || rt.Config.Serial.Baud != 115200 {
		t.Fatalf("overrides not applied: %+v", rt.Config.Serial)
	}
	if rt.CaptureRepo != nil {
		t.Fatalf("capture must stay off by default")
	}
	if err := rt.ClearCapture(); err == nil {
		t.Fatalf("expected clear to fail without capture")
	}
}

func TestRuntimeEndToEnd(t *testing.T) {
	isolateUserDirs(t)
	cfgPath := writeConfig(t, func(cfg *config.AppConfig) {
		cfg.Capture.Enabled = true
	})

	conn := &benchConn{}
	notes := &payloadLog{}
	rt, err := Initialize(context.Background(), Options{
		ConfigPath: cfgPath,
		Conn:       conn,
		Notifier:   notes,
		Radio:      radio.Options{TickInterval: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	eventually(t, func() bool {
		status, known := rt.CurrentConnStatus()
		return known && status.State == events.ConnectionStateConnected
	})

	select {
	case <-rt.Radio.SelectMode(link.ModeBLE2):
	case <-time.After(3 * time.Second):
		t.Fatalf("select mode timed out")
	}
	conn.feed(0x55, 0x03, 0x00, 0x02, 0x00)

	eventually(t, func() bool {
		for _, title := range notes.titles() {
			if title == "Keyboard connected" {
				return true
			}
		}
		return false
	})

	eventually(t, func() bool {
		frames, err := rt.CaptureRepo.ListRecentFrames(context.Background(), 50)
		if err != nil {
			t.Fatalf("list frames: %v", err)
		}
		for _, f := range frames {
			if f.Direction == capture.DirectionIn && f.Hex == "5503000200" {
				return true
			}
		}
		return false
	})

	if err := rt.ClearCapture(); err != nil {
		t.Fatalf("clear capture: %v", err)
	}

	before := conn.count([]byte{0x55, 0x02, 0x00, 0x00})
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := conn.count([]byte{0x55, 0x02, 0x00, 0x00}); got != before+1 {
		t.Fatalf("expected a stop frame on shutdown, had %d now %d", before, got)
	}
}

func TestRuntimeRefusesLockedPort(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("flock semantics only")
	}
	isolateUserDirs(t)

	lock, err := platform.AcquirePortLock(Name, "/dev/ttyBENCH2")
	if errors.Is(err, platform.ErrPortLockUnsupported) {
		t.Skip("port lock unsupported")
	}
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer func() { _ = lock.Release() }()

	_, err = Initialize(context.Background(), Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.json"),
		Port:       "/dev/ttyBENCH2",
		Conn:       &benchConn{},
	})
	if !errors.Is(err, platform.ErrPortLocked) {
		t.Fatalf("expected ErrPortLocked, got %v", err)
	}
}
